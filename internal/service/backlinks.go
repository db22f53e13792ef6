package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	infraevents "github.com/huzhengnan/website-monitor-sub000/infrastructure/events"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/events"
	"github.com/huzhengnan/website-monitor-sub000/internal/importer"
	"github.com/huzhengnan/website-monitor-sub000/internal/metadata"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/repository"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
	"github.com/huzhengnan/website-monitor-sub000/internal/semrush"
	"github.com/huzhengnan/website-monitor-sub000/internal/telemetry"
	"github.com/huzhengnan/website-monitor-sub000/internal/urlnorm"
)

// Import sources, used as metric labels and in event payloads.
const (
	SourceSemrush = "semrush"
	SourceGSC     = "gsc"
	SourceExcel   = "xlsx"
	SourcePaste   = "paste"
)

// MetadataFetcher fetches a page's title and description.
type MetadataFetcher interface {
	Extract(ctx context.Context, pageURL string) (*metadata.Metadata, error)
}

// CreateResult is the outcome of creating a backlink site. Merged is set
// when the URL's domain was already tracked under another URL.
type CreateResult struct {
	Merged       bool                 `json:"merged"`
	BacklinkSite *models.BacklinkSite `json:"backlinkSite"`
}

// MetadataResult is a backlink site after a metadata fetch.
type MetadataResult struct {
	BacklinkSite *models.BacklinkSite `json:"backlinkSite"`
	Metadata     *metadata.Metadata   `json:"metadata"`
}

// DedupeResult summarises a duplicate-domain merge.
type DedupeResult struct {
	Domains    int   `json:"domains"`
	Removed    int   `json:"removed"`
	Reassigned int64 `json:"reassigned"`
}

// backlinkFields are the user-editable fields applied on create and merge.
type backlinkFields struct {
	DR         *float64
	Note       *string
	IsFavorite bool
}

// BacklinkService manages backlink sites and their bulk imports.
type BacklinkService struct {
	store     *repository.Store
	fetcher   MetadataFetcher
	publisher *events.Publisher
	metrics   *telemetry.Metrics
	logger    infralogger.Logger
	now       Clock
}

// NewBacklinkService creates a BacklinkService. fetcher, publisher and
// metrics may be nil.
func NewBacklinkService(
	store *repository.Store,
	fetcher MetadataFetcher,
	publisher *events.Publisher,
	metrics *telemetry.Metrics,
	log infralogger.Logger,
	now Clock,
) *BacklinkService {
	if now == nil {
		now = time.Now
	}
	return &BacklinkService{
		store:     store,
		fetcher:   fetcher,
		publisher: publisher,
		metrics:   metrics,
		logger:    log,
		now:       now,
	}
}

// Create adds a backlink site. An identical URL is rejected with
// ErrAlreadyExists; a new URL on a tracked domain is merged into the
// existing row, keeping the better of the two URLs.
func (s *BacklinkService) Create(ctx context.Context, req *models.BacklinkSiteCreateRequest) (*CreateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	normalized, err := normalizeURL(req.URL)
	if err != nil {
		return nil, err
	}

	fields := backlinkFields{DR: req.DR, Note: trimmed(req.Note), IsFavorite: req.IsFavorite}
	if req.FetchMetadata && fields.Note == nil {
		fields.Note = s.fetchNote(ctx, normalized)
	}

	var result CreateResult
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		_, getErr := tx.BacklinkSites.GetByURL(ctx, normalized)
		if getErr == nil {
			return models.ErrAlreadyExists
		}
		if !errors.Is(getErr, models.ErrNotFound) {
			return getErr
		}

		site, created, saveErr := s.save(ctx, tx, normalized, fields)
		if saveErr != nil {
			return saveErr
		}
		result = CreateResult{Merged: !created, BacklinkSite: site}
		return refreshImportance(ctx, tx, site)
	})
	if err != nil {
		return nil, err
	}

	eventType := infraevents.BacklinkSiteCreated
	if result.Merged {
		eventType = infraevents.BacklinkSiteMerged
	}
	s.logger.Info("Backlink site saved",
		infralogger.BacklinkSiteID(result.BacklinkSite.ID.String()),
		infralogger.String("domain", result.BacklinkSite.Domain),
		infralogger.Bool("merged", result.Merged),
	)
	s.publisher.PublishAsync(eventType, result.BacklinkSite.ID.String(), nil)
	return &result, nil
}

func (s *BacklinkService) Get(ctx context.Context, id uuid.UUID) (*models.BacklinkSite, error) {
	return s.store.BacklinkSites.GetByID(ctx, id)
}

func (s *BacklinkService) List(ctx context.Context, filter models.BacklinkSiteFilter) ([]models.BacklinkSite, int, error) {
	return s.store.BacklinkSites.List(ctx, filter)
}

// Update edits a backlink site. A new URL is normalized and its domain
// re-derived; a DR change refreshes the importance score.
func (s *BacklinkService) Update(ctx context.Context, id uuid.UUID, req *models.BacklinkSiteUpdateRequest) (*models.BacklinkSite, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.URL != nil {
		normalized, err := normalizeURL(*req.URL)
		if err != nil {
			return nil, err
		}
		updates["url"] = normalized
		updates["domain"] = urlnorm.ExtractDomain(normalized)
	}
	if req.DR != nil {
		updates["dr"] = *req.DR
	}
	if req.Note != nil {
		updates["note"] = trimmed(req.Note)
	}
	if req.IsFavorite != nil {
		updates["is_favorite"] = *req.IsFavorite
	}

	var site *models.BacklinkSite
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		if site, err = tx.BacklinkSites.Update(ctx, id, updates); err != nil {
			return err
		}
		if req.DR != nil {
			return refreshImportance(ctx, tx, site)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return site, nil
}

// Delete removes a backlink site and its submissions.
func (s *BacklinkService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.BacklinkSites.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Backlink site deleted", infralogger.BacklinkSiteID(id.String()))
	return nil
}

// FetchMetadata loads the site's homepage and stores its title and
// description as the note when the note is empty.
func (s *BacklinkService) FetchMetadata(ctx context.Context, id uuid.UUID) (*MetadataResult, error) {
	if s.fetcher == nil {
		return nil, errors.New("metadata fetching is disabled")
	}
	site, err := s.store.BacklinkSites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	md, err := s.fetcher.Extract(ctx, site.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata for %s: %w", site.URL, err)
	}

	if note := md.Note(); note != "" && (site.Note == nil || *site.Note == "") {
		site, err = s.store.BacklinkSites.Update(ctx, id, map[string]any{"note": note})
		if err != nil {
			return nil, err
		}
	}
	return &MetadataResult{BacklinkSite: site, Metadata: md}, nil
}

// ImportSemrush parses pasted Semrush overview text and upserts one backlink
// site per domain block. Each item is written in its own transaction.
func (s *BacklinkService) ImportSemrush(ctx context.Context, req *models.SemrushImportRequest) (*ImportResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	items := semrush.Parse(req.PastedText)
	if len(items) == 0 {
		return nil, models.NewValidationError("pastedText", "no domains found")
	}

	result := &ImportResult{Total: len(items)}
	for i := range items {
		item := items[i]
		if err := semrush.Validate(item); err != nil {
			result.fail(i+1, item.Domain, err)
			continue
		}

		created, err := s.upsertSemrush(ctx, item)
		if err != nil {
			s.logger.Warn("Semrush item import failed",
				infralogger.String("domain", item.Domain),
				infralogger.Error(err),
			)
			result.fail(i+1, item.Domain, err)
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.finishImport(SourceSemrush, result)
	return result, nil
}

func (s *BacklinkService) upsertSemrush(ctx context.Context, item semrush.Data) (bool, error) {
	domain := urlnorm.ExtractDomain(item.Domain)
	raw, err := json.Marshal(item)
	if err != nil {
		return false, fmt.Errorf("marshal semrush data: %w", err)
	}
	syncedAt := s.now()

	created := false
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		existing, err := tx.BacklinkSites.FindByDomain(ctx, domain)
		if err != nil {
			return err
		}

		var site *models.BacklinkSite
		if len(existing) == 0 {
			site, err = tx.BacklinkSites.Create(ctx, &models.BacklinkSite{
				URL:             "https://" + domain,
				Domain:          domain,
				AuthorityScore:  item.AuthorityScore,
				OrganicTraffic:  item.OrganicTraffic,
				OrganicKeywords: item.OrganicKeywords,
				PaidTraffic:     item.PaidTraffic,
				Backlinks:       item.Backlinks,
				RefDomains:      item.RefDomains,
				AIVisibility:    item.AIVisibility,
				AIMentions:      item.AIMentions,
				TrafficChange:   item.TrafficChange,
				KeywordsChange:  item.KeywordsChange,
				SemrushDataJSON: types.JSONText(raw),
				SemrushTags:     pq.StringArray(item.Tags),
				SemrushLastSync: &syncedAt,
			})
			created = true
		} else {
			site, err = tx.BacklinkSites.Update(ctx, existing[0].ID, semrushUpdates(item, raw, syncedAt))
		}
		if err != nil {
			return err
		}
		return refreshImportance(ctx, tx, site)
	})
	return created, err
}

// semrushUpdates overwrites the metrics the paste carried and leaves the
// others untouched.
func semrushUpdates(item semrush.Data, raw []byte, syncedAt time.Time) map[string]any {
	updates := map[string]any{
		"semrush_data_json": types.JSONText(raw),
		"semrush_last_sync": syncedAt,
	}
	if len(item.Tags) > 0 {
		updates["semrush_tags"] = pq.StringArray(item.Tags)
	}
	setIf(updates, "authority_score", item.AuthorityScore)
	setIf(updates, "organic_traffic", item.OrganicTraffic)
	setIf(updates, "organic_keywords", item.OrganicKeywords)
	setIf(updates, "paid_traffic", item.PaidTraffic)
	setIf(updates, "backlinks", item.Backlinks)
	setIf(updates, "ref_domains", item.RefDomains)
	setIf(updates, "ai_visibility", item.AIVisibility)
	setIf(updates, "ai_mentions", item.AIMentions)
	setIf(updates, "traffic_change", item.TrafficChange)
	setIf(updates, "keywords_change", item.KeywordsChange)
	return updates
}

func setIf[T any](updates map[string]any, column string, v *T) {
	if v != nil {
		updates[column] = *v
	}
}

// ImportGSC records the linking domains Search Console reports for a site:
// each domain becomes (or matches) a backlink site with an indexed
// submission for siteId.
func (s *BacklinkService) ImportGSC(ctx context.Context, req *models.GSCImportRequest) (*ImportResult, error) {
	siteID, err := req.Validate()
	if err != nil {
		return nil, err
	}
	if _, err = s.store.Sites.GetByID(ctx, siteID); err != nil {
		return nil, err
	}

	result := &ImportResult{Total: len(req.BacklinkDomains)}
	for i, entry := range req.BacklinkDomains {
		created, importErr := s.importGSCDomain(ctx, siteID, entry)
		if importErr != nil {
			result.fail(i+1, entry.Domain, importErr)
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.finishImport(SourceGSC, result)
	return result, nil
}

func (s *BacklinkService) importGSCDomain(ctx context.Context, siteID uuid.UUID, entry models.GSCBacklinkDomain) (bool, error) {
	raw := entry.Domain
	if entry.URL != nil && *entry.URL != "" {
		raw = *entry.URL
	}
	normalized, err := normalizeURL(raw)
	if err != nil {
		return false, err
	}

	indexed := models.NewDate(s.now())
	if entry.IndexedDate != nil {
		indexed = *entry.IndexedDate
	}

	created := false
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		site, isNew, err := s.save(ctx, tx, normalized, backlinkFields{})
		if err != nil {
			return err
		}
		created = isNew

		if err = markIndexed(ctx, tx, siteID, site.ID, indexed.Time); err != nil {
			return err
		}
		return refreshImportance(ctx, tx, site)
	})
	return created, err
}

func markIndexed(ctx context.Context, tx *repository.Store, siteID, backlinkSiteID uuid.UUID, at time.Time) error {
	existing, err := tx.Submissions.List(ctx, models.SubmissionFilter{SiteID: &siteID, BacklinkSiteID: &backlinkSiteID})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		_, err = tx.Submissions.Update(ctx, existing[0].ID, statusUpdates(models.SubmissionIndexed, at))
		return err
	}
	_, err = tx.Submissions.Create(ctx, &models.BacklinkSubmission{
		SiteID:         siteID,
		BacklinkSiteID: backlinkSiteID,
		Status:         models.SubmissionIndexed,
		IndexedDate:    &at,
	})
	return err
}

// ImportExcel reads backlink sites from the first sheet of an XLSX workbook.
// Rows whose URL or domain is already tracked fill in missing fields.
func (s *BacklinkService) ImportExcel(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, rowErrs, err := importer.ParseExcelFile(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Total: len(rows) + len(rowErrs)}
	for _, re := range rowErrs {
		result.fail(re.Row, "", errors.New(re.Error))
	}

	for _, row := range rows {
		normalized, normErr := normalizeURL(row.URL)
		if normErr != nil {
			result.fail(row.Row, row.URL, normErr)
			continue
		}

		fields := backlinkFields{DR: row.DR, Note: optionalString(row.Note), IsFavorite: row.IsFavorite}
		var created bool
		txErr := s.store.InTx(ctx, func(tx *repository.Store) error {
			site, isNew, saveErr := s.save(ctx, tx, normalized, fields)
			if saveErr != nil {
				return saveErr
			}
			created = isNew
			return refreshImportance(ctx, tx, site)
		})
		if txErr != nil {
			result.fail(row.Row, row.URL, txErr)
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.finishImport(SourceExcel, result)
	return result, nil
}

// ExportExcel writes every backlink site, most important first.
func (s *BacklinkService) ExportExcel(ctx context.Context, w io.Writer) error {
	sites, _, err := s.store.BacklinkSites.List(ctx, models.BacklinkSiteFilter{SortBy: "importance_score", SortOrder: "desc"})
	if err != nil {
		return err
	}
	return importer.WriteBacklinkSites(w, sites)
}

// Dedupe merges every group of rows sharing a domain into the row with the
// best URL. Submissions move to the kept row unless it already has one for
// the same site; the other rows are deleted.
func (s *BacklinkService) Dedupe(ctx context.Context) (*DedupeResult, error) {
	domains, err := s.store.BacklinkSites.DuplicateDomains(ctx)
	if err != nil {
		return nil, err
	}

	result := &DedupeResult{}
	for _, domain := range domains {
		err = s.store.InTx(ctx, func(tx *repository.Store) error {
			removed, moved, mergeErr := mergeDomain(ctx, tx, domain)
			if mergeErr != nil {
				return mergeErr
			}
			result.Removed += removed
			result.Reassigned += moved
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("dedupe %s: %w", domain, err)
		}
		result.Domains++
	}

	s.logger.Info("Backlink sites deduplicated",
		infralogger.Int("domains", result.Domains),
		infralogger.Int("removed", result.Removed),
		infralogger.Int64("reassigned", result.Reassigned),
	)
	return result, nil
}

func mergeDomain(ctx context.Context, tx *repository.Store, domain string) (removed int, moved int64, err error) {
	rows, err := tx.BacklinkSites.FindByDomain(ctx, domain)
	if err != nil || len(rows) < 2 {
		return 0, 0, err
	}

	keep := 0
	for i := 1; i < len(rows); i++ {
		if urlnorm.SelectBetterURL(rows[keep].URL, rows[i].URL) == rows[i].URL && rows[i].URL != rows[keep].URL {
			keep = i
		}
	}
	kept := rows[keep]

	updates := make(map[string]any)
	for i := range rows {
		if i == keep {
			continue
		}
		fillMissing(updates, &kept, backlinkFields{DR: rows[i].DR, Note: rows[i].Note, IsFavorite: rows[i].IsFavorite})

		n, reassignErr := tx.Submissions.Reassign(ctx, rows[i].ID, kept.ID)
		if reassignErr != nil {
			return 0, 0, reassignErr
		}
		moved += n
		if err = tx.BacklinkSites.Delete(ctx, rows[i].ID); err != nil {
			return 0, 0, err
		}
		removed++
	}

	site := &kept
	if len(updates) > 0 {
		if site, err = tx.BacklinkSites.Update(ctx, kept.ID, updates); err != nil {
			return 0, 0, err
		}
	}
	return removed, moved, refreshImportance(ctx, tx, site)
}

// save creates a backlink site for normalized or merges fields into the row
// already tracking its domain. It reports whether a row was created. Callers
// refresh the importance score.
func (s *BacklinkService) save(ctx context.Context, tx *repository.Store, normalized string, fields backlinkFields) (*models.BacklinkSite, bool, error) {
	domain := urlnorm.ExtractDomain(normalized)
	existing, err := tx.BacklinkSites.FindByDomain(ctx, domain)
	if err != nil {
		return nil, false, err
	}

	if len(existing) == 0 {
		site, createErr := tx.BacklinkSites.Create(ctx, &models.BacklinkSite{
			URL:        normalized,
			Domain:     domain,
			DR:         fields.DR,
			Note:       fields.Note,
			IsFavorite: fields.IsFavorite,
		})
		if createErr != nil {
			return nil, false, createErr
		}
		return site, true, nil
	}

	target := existing[0]
	for i := range existing {
		if existing[i].URL == normalized {
			target = existing[i]
			break
		}
	}

	updates := make(map[string]any)
	if better := urlnorm.SelectBetterURL(target.URL, normalized); better != target.URL {
		updates["url"] = better
	}
	fillMissing(updates, &target, fields)
	if len(updates) == 0 {
		return &target, false, nil
	}

	site, err := tx.BacklinkSites.Update(ctx, target.ID, updates)
	if err != nil {
		return nil, false, err
	}
	return site, false, nil
}

// fillMissing records updates for the fields site lacks and fields has. It
// updates site in place so repeated calls only fill each field once.
func fillMissing(updates map[string]any, site *models.BacklinkSite, fields backlinkFields) {
	if site.DR == nil && fields.DR != nil {
		updates["dr"] = *fields.DR
		site.DR = fields.DR
	}
	if (site.Note == nil || *site.Note == "") && fields.Note != nil && *fields.Note != "" {
		updates["note"] = *fields.Note
		site.Note = fields.Note
	}
	if fields.IsFavorite && !site.IsFavorite {
		updates["is_favorite"] = true
		site.IsFavorite = true
	}
}

// refreshImportance recomputes site's importance score from its DR and
// submission statuses and stores it when it changed.
func refreshImportance(ctx context.Context, store *repository.Store, site *models.BacklinkSite) error {
	statuses, err := store.Submissions.Statuses(ctx, site.ID)
	if err != nil {
		return err
	}
	score := scoring.ImportanceScore(site.DR, statuses)
	if score == site.ImportanceScore {
		return nil
	}
	if err = store.BacklinkSites.SetImportance(ctx, site.ID, score); err != nil {
		return err
	}
	site.ImportanceScore = score
	return nil
}

func (s *BacklinkService) fetchNote(ctx context.Context, pageURL string) *string {
	if s.fetcher == nil {
		return nil
	}
	md, err := s.fetcher.Extract(ctx, pageURL)
	if err != nil {
		s.logger.Warn("Metadata fetch failed",
			infralogger.String("url", pageURL),
			infralogger.Error(err),
		)
		return nil
	}
	return optionalString(md.Note())
}

func (s *BacklinkService) finishImport(source string, result *ImportResult) {
	s.logger.Info("Backlink import completed",
		infralogger.String("source", source),
		infralogger.Int("total", result.Total),
		infralogger.Int("created", result.Created),
		infralogger.Int("updated", result.Updated),
		infralogger.Int("failed", result.Failed),
	)
	s.metrics.RecordImport(source, result.Created, result.Updated, result.Failed)
	s.publisher.PublishAsync(infraevents.BacklinkImportDone, source, infraevents.ImportPayload{
		Source:  source,
		Total:   result.Total,
		Created: result.Created,
		Updated: result.Updated,
		Failed:  result.Failed,
	})
}

func normalizeURL(raw string) (string, error) {
	normalized, err := urlnorm.Normalize(raw)
	if err != nil {
		return "", models.NewValidationError("url", "%q is not a valid URL", raw)
	}
	return normalized, nil
}
