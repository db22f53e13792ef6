package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

func TestDate_JSON(t *testing.T) {
	t.Parallel()

	var got struct {
		A models.Date  `json:"a"`
		B *models.Date `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2024-06-10","b":"2024-06-08T23:30:00Z"}`), &got))
	assert.Equal(t, "2024-06-10", got.A.String())
	require.NotNil(t, got.B)
	assert.Equal(t, "2024-06-08", got.B.String())

	out, err := json.Marshal(got.A)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-06-10"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"a":"10/06/2024"}`), &got))
}

func TestSiteCreateRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       models.SiteCreateRequest
		wantField string
	}{
		{name: "valid defaults status", req: models.SiteCreateRequest{Name: "Blog", Domain: "blog.example.com"}},
		{name: "missing name", req: models.SiteCreateRequest{Domain: "x.com"}, wantField: "name"},
		{name: "missing domain", req: models.SiteCreateRequest{Name: "X"}, wantField: "domain"},
		{name: "bad status", req: models.SiteCreateRequest{Name: "X", Domain: "x.com", Status: "gone"}, wantField: "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := tt.req
			err := req.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, models.SiteStatusOnline, req.Status)
				return
			}
			var vErr *models.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestUpdateRequests_NoFields(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, (&models.SiteUpdateRequest{}).Validate(), models.ErrNoFieldsToUpdate)
	assert.ErrorIs(t, (&models.BacklinkSiteUpdateRequest{}).Validate(), models.ErrNoFieldsToUpdate)
	assert.ErrorIs(t, (&models.SubmissionUpdateRequest{}).Validate(), models.ErrNoFieldsToUpdate)
	assert.ErrorIs(t, (&models.ConnectorUpdateRequest{}).Validate(models.ConnectorSearchConsole), models.ErrNoFieldsToUpdate)
}

func TestEvaluationCreateRequest_Validate(t *testing.T) {
	t.Parallel()

	req := models.EvaluationCreateRequest{MarketScore: 50, QualityScore: 101}
	var vErr *models.ValidationError
	require.ErrorAs(t, req.Validate(), &vErr)
	assert.Equal(t, "qualityScore", vErr.Field)

	req.QualityScore = 100
	assert.NoError(t, req.Validate())
}

func TestConnectorCreateRequest_Validate(t *testing.T) {
	t.Parallel()

	req := models.ConnectorCreateRequest{
		SiteID:      "6f1c2d9e-5b57-4b3c-9a51-6f0f3b9f2c11",
		Type:        models.ConnectorGoogleAnalytics,
		Credentials: json.RawMessage(`{"type":"service_account"}`),
	}
	_, err := req.Validate()
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "config.propertyId", vErr.Field)

	req.Config.PropertyID = "123456"
	_, err = req.Validate()
	assert.NoError(t, err)
}

func TestConnector_HasCredentials(t *testing.T) {
	t.Parallel()

	c := &models.Connector{Credentials: []byte(`{"private_key":"x"}`)}
	resp := models.NewConnectorResponse(c)
	assert.True(t, resp.HasCredentials)

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "private_key")

	assert.False(t, (&models.Connector{Credentials: []byte(`{}`)}).HasCredentials())
}
