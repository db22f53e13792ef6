package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/repository"
	"github.com/huzhengnan/website-monitor-sub000/internal/urlnorm"
)

// SubmissionService tracks backlink submissions. Every write refreshes the
// importance score of the backlink site involved.
type SubmissionService struct {
	store     *repository.Store
	backlinks *BacklinkService
	logger    infralogger.Logger
	now       Clock
}

// NewSubmissionService creates a SubmissionService. backlinks resolves
// pasted URLs to backlink sites.
func NewSubmissionService(store *repository.Store, backlinks *BacklinkService, log infralogger.Logger, now Clock) *SubmissionService {
	if now == nil {
		now = time.Now
	}
	return &SubmissionService{store: store, backlinks: backlinks, logger: log, now: now}
}

func (s *SubmissionService) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionView, error) {
	return s.store.Submissions.List(ctx, filter)
}

// Create records a submission. A second one for the same pair yields
// ErrDuplicateSubmission.
func (s *SubmissionService) Create(ctx context.Context, req *models.SubmissionCreateRequest) (*models.BacklinkSubmission, error) {
	siteID, backlinkSiteID, err := req.Validate()
	if err != nil {
		return nil, err
	}

	submission := &models.BacklinkSubmission{
		SiteID:         siteID,
		BacklinkSiteID: backlinkSiteID,
		Status:         req.Status,
		SubmitDate:     req.SubmitDate.TimePtr(),
		IndexedDate:    req.IndexedDate.TimePtr(),
		Notes:          trimmed(req.Notes),
		Cost:           req.Cost,
	}

	var created *models.BacklinkSubmission
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Sites.GetByID(ctx, siteID); err != nil {
			return err
		}
		site, err := tx.BacklinkSites.GetByID(ctx, backlinkSiteID)
		if err != nil {
			return err
		}
		if created, err = tx.Submissions.Create(ctx, submission); err != nil {
			return err
		}
		return refreshImportance(ctx, tx, site)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SubmissionService) Update(ctx context.Context, id uuid.UUID, req *models.SubmissionUpdateRequest) (*models.BacklinkSubmission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.SubmitDate != nil {
		updates["submit_date"] = req.SubmitDate.Time
	}
	if req.IndexedDate != nil {
		updates["indexed_date"] = req.IndexedDate.Time
	}
	if req.Notes != nil {
		updates["notes"] = trimmed(req.Notes)
	}
	if req.Cost != nil {
		updates["cost"] = *req.Cost
	}

	var updated *models.BacklinkSubmission
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		if updated, err = tx.Submissions.Update(ctx, id, updates); err != nil {
			return err
		}
		if req.Status == nil {
			return nil
		}
		site, err := tx.BacklinkSites.GetByID(ctx, updated.BacklinkSiteID)
		if err != nil {
			return err
		}
		return refreshImportance(ctx, tx, site)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SubmissionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		existing, err := tx.Submissions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err = tx.Submissions.Delete(ctx, id); err != nil {
			return err
		}
		site, err := tx.BacklinkSites.GetByID(ctx, existing.BacklinkSiteID)
		if err != nil {
			return err
		}
		return refreshImportance(ctx, tx, site)
	})
}

// PasteImport records one submission per pasted URL. URLs on the same domain
// collapse to the better one first; a pair that is already tracked has its
// status updated instead.
func (s *SubmissionService) PasteImport(ctx context.Context, req *models.PasteImportRequest) (*ImportResult, error) {
	siteID, err := req.Validate()
	if err != nil {
		return nil, err
	}
	if _, err = s.store.Sites.GetByID(ctx, siteID); err != nil {
		return nil, err
	}

	deduped := urlnorm.DeduplicateURLs(strings.Split(req.Text, "\n"))
	result := &ImportResult{
		Total:      len(deduped.Unique) + len(deduped.Invalid),
		Duplicates: deduped.Removed,
	}
	for i, raw := range deduped.Invalid {
		result.fail(i+1, raw, urlnorm.ErrInvalidURL)
	}

	today := s.now()
	for i, raw := range deduped.Unique {
		created, importErr := s.pasteOne(ctx, siteID, raw, req.Status, today)
		if importErr != nil {
			result.fail(len(deduped.Invalid)+i+1, raw, importErr)
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.backlinks.finishImport(SourcePaste, result)
	return result, nil
}

func (s *SubmissionService) pasteOne(ctx context.Context, siteID uuid.UUID, raw string, status models.SubmissionStatus, today time.Time) (bool, error) {
	normalized, err := normalizeURL(raw)
	if err != nil {
		return false, err
	}

	created := false
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		site, _, err := s.backlinks.save(ctx, tx, normalized, backlinkFields{})
		if err != nil {
			return err
		}

		existing, err := tx.Submissions.List(ctx, models.SubmissionFilter{SiteID: &siteID, BacklinkSiteID: &site.ID})
		if err != nil {
			return err
		}

		if len(existing) > 0 {
			_, err = tx.Submissions.Update(ctx, existing[0].ID, statusUpdates(status, today))
		} else {
			submission := &models.BacklinkSubmission{SiteID: siteID, BacklinkSiteID: site.ID, Status: status}
			switch status {
			case models.SubmissionSubmitted:
				submission.SubmitDate = &today
			case models.SubmissionIndexed:
				submission.IndexedDate = &today
			}
			_, err = tx.Submissions.Create(ctx, submission)
			created = err == nil
		}
		if err != nil {
			return err
		}
		return refreshImportance(ctx, tx, site)
	})
	return created, err
}

// statusUpdates sets status and stamps the matching date column.
func statusUpdates(status models.SubmissionStatus, at time.Time) map[string]any {
	updates := map[string]any{"status": status}
	switch status {
	case models.SubmissionSubmitted:
		updates["submit_date"] = at
	case models.SubmissionIndexed:
		updates["indexed_date"] = at
	}
	return updates
}
