package sales

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/sales-tracker/internal/lib/calendar"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/validation"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateSale(ctx context.Context, sale models.Sale) (int, error) {
	args := m.Called(ctx, sale)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) ListSales(ctx context.Context) ([]*models.Sale, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Sale), args.Error(1)
}

type MetricsMock struct{ mock.Mock }

func (m *MetricsMock) RecordSaleCreated() { m.Called() }

func (m *MetricsMock) RecordSelection(selected, excluded int) { m.Called(selected, excluded) }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(s string) func() time.Time {
	return func() time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
}

func float(v float64) *float64 { return &v }

func str(s string) *string { return &s }

func validRequest() models.SaleRequest {
	return models.SaleRequest{
		ProductName:  "Netflix - 1M",
		Duration:     1,
		Customer:     " Alice ",
		Email:        "alice@example.com",
		PurchaseDate: "2024-01-31",
		Price:        float(15000),
		Profit:       float(3000),
	}
}

func TestService_Create(t *testing.T) {
	tests := []struct {
		name       string
		req        func() models.SaleRequest
		setupMocks func(r *RepoMock, m *MetricsMock)
		wantID     int
		wantFields []string
		wantErr    bool
	}{
		{
			name: "derives end date with month end clamp",
			req:  validRequest,
			setupMocks: func(r *RepoMock, m *MetricsMock) {
				r.On("CreateSale", mock.Anything, mock.MatchedBy(func(s models.Sale) bool {
					return s.EndDate != nil && s.EndDate.String() == "2024-02-29" &&
						s.Customer == "Alice" &&
						s.Email != nil && *s.Email == "alice@example.com" &&
						s.Seller == nil && s.Note == nil
				})).Return(11, nil).Once()
				m.On("RecordSaleCreated").Once()
			},
			wantID: 11,
		},
		{
			name: "keeps provided end date",
			req: func() models.SaleRequest {
				req := validRequest()
				req.EndDate = "2024-03-15"
				req.Note = "<b>renewed</b> manually"
				return req
			},
			setupMocks: func(r *RepoMock, m *MetricsMock) {
				r.On("CreateSale", mock.Anything, mock.MatchedBy(func(s models.Sale) bool {
					return s.EndDate.String() == "2024-03-15" &&
						s.Note != nil && *s.Note == "renewed manually"
				})).Return(12, nil).Once()
				m.On("RecordSaleCreated").Once()
			},
			wantID: 12,
		},
		{
			name: "field errors",
			req: func() models.SaleRequest {
				return models.SaleRequest{
					Duration:     0,
					Email:        "not-an-email",
					PurchaseDate: "2024-02-30",
					EndDate:      "31/12/2024",
					Seller:       strings.Repeat("x", 256),
					Price:        float(-5),
				}
			},
			setupMocks: func(_ *RepoMock, _ *MetricsMock) {},
			wantErr:    true,
			wantFields: []string{
				"product_name", "duration", "customer", "purchase_date", "gmail",
				"seller", "price", "profit", "end_date",
			},
		},
		{
			name: "year zero purchase date",
			req: func() models.SaleRequest {
				req := validRequest()
				req.PurchaseDate = "0000-01-01"
				return req
			},
			setupMocks: func(_ *RepoMock, _ *MetricsMock) {},
			wantErr:    true,
			wantFields: []string{"purchase_date"},
		},
		{
			name: "end date past year 9999",
			req: func() models.SaleRequest {
				req := validRequest()
				req.PurchaseDate = "9999-12-15"
				return req
			},
			setupMocks: func(_ *RepoMock, _ *MetricsMock) {},
			wantErr:    true,
			wantFields: []string{"duration"},
		},
		{
			name: "duration too long",
			req: func() models.SaleRequest {
				req := validRequest()
				req.PurchaseDate = "2025-01-01"
				req.Duration = 100000
				return req
			},
			setupMocks: func(_ *RepoMock, _ *MetricsMock) {},
			wantErr:    true,
			wantFields: []string{"duration"},
		},
		{
			name: "last representable end date",
			req: func() models.SaleRequest {
				req := validRequest()
				req.PurchaseDate = "9999-11-30"
				return req
			},
			setupMocks: func(r *RepoMock, m *MetricsMock) {
				r.On("CreateSale", mock.Anything, mock.MatchedBy(func(s models.Sale) bool {
					return s.EndDate != nil && s.EndDate.String() == "9999-12-30"
				})).Return(13, nil).Once()
				m.On("RecordSaleCreated").Once()
			},
			wantID: 13,
		},
		{
			name: "repository error",
			req:  validRequest,
			setupMocks: func(r *RepoMock, _ *MetricsMock) {
				r.On("CreateSale", mock.Anything, mock.Anything).Return(0, errors.New("db error")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, metrics := new(RepoMock), new(MetricsMock)
			tt.setupMocks(repo, metrics)
			svc := NewService(repo, metrics, 4, nil, newNoopLogger())

			id, err := svc.Create(context.Background(), tt.req())
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantFields != nil {
					var verr *validation.Error
					require.True(t, errors.As(err, &verr))
					assert.Len(t, verr.Fields, len(tt.wantFields))
					for _, f := range tt.wantFields {
						assert.Contains(t, verr.Fields, f)
					}
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			repo.AssertExpectations(t)
			metrics.AssertExpectations(t)
		})
	}
}

func TestService_ExpiringSoon(t *testing.T) {
	end := func(s string) *calendar.Date {
		d, err := calendar.Parse(s)
		require.NoError(t, err)
		return &d
	}
	purchase, err := calendar.Parse("2025-05-12")
	require.NoError(t, err)

	repo, metrics := new(RepoMock), new(MetricsMock)
	repo.On("ListSales", mock.Anything).Return([]*models.Sale{
		{ID: 1, EndDate: end("2025-06-13")},
		{ID: 2, EndDate: end("2025-06-14")},
		{ID: 3, PurchaseDate: purchase, Duration: 1},
		{ID: 4},
		{ID: 5, EndDate: end("2025-06-10")},
	}, nil).Once()
	metrics.On("RecordSelection", 3, 1).Once()

	// 23:30 UTC всё ещё 10 июня.
	svc := NewService(repo, metrics, 4, fixedClock("2025-06-10T23:30:00Z"), newNoopLogger())

	sel, err := svc.ExpiringSoon(context.Background())
	require.NoError(t, err)
	require.Len(t, sel.Items, 3)
	assert.Equal(t, []int{5, 3, 1}, []int{sel.Items[0].ID, sel.Items[1].ID, sel.Items[2].ID})
	assert.Equal(t, 2, sel.Items[1].DaysRemaining)
	assert.Equal(t, 1, sel.Excluded)
	metrics.AssertExpectations(t)
}

func TestService_ExpiringSoon_RepositoryError(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListSales", mock.Anything).Return(nil, errors.New("db error")).Once()
	svc := NewService(repo, new(MetricsMock), 4, nil, newNoopLogger())

	_, err := svc.ExpiringSoon(context.Background())
	assert.Error(t, err)
}

func TestService_ExportCSV(t *testing.T) {
	purchase, err := calendar.Parse("2025-05-31")
	require.NoError(t, err)
	endDate, err := calendar.Parse("2025-06-30")
	require.NoError(t, err)

	repo := new(RepoMock)
	repo.On("ListSales", mock.Anything).Return([]*models.Sale{
		{
			ProductName:  "Netflix - 1M",
			Duration:     1,
			Customer:     "Doe, John",
			Email:        str("john@example.com"),
			PurchaseDate: purchase,
			EndDate:      &endDate,
			Note:         str(`said "thanks"`),
			Price:        15000,
			Profit:       3000.5,
		},
		{
			ProductName:  "Spotify - 3M",
			Duration:     3,
			Customer:     "Bob",
			PurchaseDate: purchase,
			Price:        9000,
		},
	}, nil).Once()
	svc := NewService(repo, new(MetricsMock), 4, nil, newNoopLogger())

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, utf8BOM))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, utf8BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ExportHeader, records[0])
	assert.Equal(t, []string{
		"Netflix - 1M", "1", "Doe, John", "john@example.com", "2025-05-31",
		"2025-06-30", "", `said "thanks"`, "15000", "3000.5",
	}, records[1])
	assert.Equal(t, []string{
		"Spotify - 3M", "3", "Bob", "", "2025-05-31", "", "", "", "9000", "0",
	}, records[2])
}

func TestService_ExportCSV_RepositoryError(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListSales", mock.Anything).Return(nil, errors.New("db error")).Once()
	svc := NewService(repo, new(MetricsMock), 4, nil, newNoopLogger())

	var buf bytes.Buffer
	assert.Error(t, svc.ExportCSV(context.Background(), &buf))
	assert.Zero(t, buf.Len())
}
