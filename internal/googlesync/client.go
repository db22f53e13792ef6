// Package googlesync pulls daily Google Analytics 4 and Search Console
// metrics for sites with configured connectors.
package googlesync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"
	searchconsole "google.golang.org/api/searchconsole/v1"

	infrahttp "github.com/huzhengnan/website-monitor-sub000/infrastructure/http"
	"github.com/huzhengnan/website-monitor-sub000/internal/aggregate"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const defaultRequestTimeout = 30 * time.Second

// TrafficFetcher reads daily GA4 rows for a property.
type TrafficFetcher interface {
	FetchTraffic(ctx context.Context, propertyID string, w aggregate.Window) ([]models.TrafficData, error)
}

// SearchFetcher reads daily Search Console rows for a property.
type SearchFetcher interface {
	FetchSearch(ctx context.Context, siteURL string, w aggregate.Window) ([]models.SearchConsoleData, error)
}

// ClientFactory builds API clients from a connector's service account key.
type ClientFactory interface {
	Analytics(ctx context.Context, credentials []byte) (TrafficFetcher, error)
	SearchConsole(ctx context.Context, credentials []byte) (SearchFetcher, error)
}

// GoogleFactory builds clients for the real Google APIs.
type GoogleFactory struct {
	base    *http.Client
	timeout time.Duration
}

// NewGoogleFactory creates a GoogleFactory whose API calls time out after
// timeout.
func NewGoogleFactory(timeout time.Duration) *GoogleFactory {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &GoogleFactory{
		base:    infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: timeout}),
		timeout: timeout,
	}
}

func (f *GoogleFactory) Analytics(ctx context.Context, credentials []byte) (TrafficFetcher, error) {
	client, err := f.httpClient(ctx, credentials, analyticsdata.AnalyticsReadonlyScope)
	if err != nil {
		return nil, err
	}
	svc, err := analyticsdata.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create analytics data service: %w", err)
	}
	return &analyticsClient{svc: svc}, nil
}

func (f *GoogleFactory) SearchConsole(ctx context.Context, credentials []byte) (SearchFetcher, error) {
	client, err := f.httpClient(ctx, credentials, searchconsole.WebmastersReadonlyScope)
	if err != nil {
		return nil, err
	}
	svc, err := searchconsole.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create search console service: %w", err)
	}
	return &searchClient{svc: svc}, nil
}

// httpClient authenticates as the service account in credentials. Token
// requests go through the factory's base client.
func (f *GoogleFactory) httpClient(ctx context.Context, credentials []byte, scope string) (*http.Client, error) {
	conf, err := google.JWTConfigFromJSON(credentials, scope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	client := conf.Client(context.WithValue(ctx, oauth2.HTTPClient, f.base))
	client.Timeout = f.timeout
	return client, nil
}
