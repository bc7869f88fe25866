package service

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"blueprep_backend/internal/config"
	"blueprep_backend/internal/model"
	"blueprep_backend/internal/util"
	"blueprep_backend/pkg/logger"
	"blueprep_backend/pkg/monitoring"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const summaryTop = 3

type PublishResult struct {
	Report    *Report `json:"-"`
	URL       string  `json:"url"`
	Delivered int     `json:"delivered"`
	Failed    int     `json:"failed"`
}

// ReportPublisher renders an ended test's leaderboard, archives it and sends
// it to every operator.
type ReportPublisher struct {
	Leaderboard *LeaderboardService
	Storage     *StorageService
	Deliverer   Deliverer
	Operators   *OperatorSet
	Concurrency int
}

func NewReportPublisher(lb *LeaderboardService, storage *StorageService, deliverer Deliverer, operators *OperatorSet, concurrency int) *ReportPublisher {
	return &ReportPublisher{
		Leaderboard: lb,
		Storage:     storage,
		Deliverer:   deliverer,
		Operators:   operators,
		Concurrency: concurrency,
	}
}

// Publish returns util.ErrNoSubmissions, and sends nothing, when nobody
// submitted. Delivery failures are counted in the result, not returned.
func (p *ReportPublisher) Publish(ctx context.Context, testID uint, now time.Time) (*PublishResult, error) {
	lb, err := p.Leaderboard.Build(ctx, testID, now)
	if err != nil {
		return nil, err
	}
	if len(lb.Entries) == 0 {
		return nil, util.ErrNoSubmissions
	}

	report, err := p.render(lb, now)
	if err != nil {
		return nil, err
	}

	if p.Storage != nil {
		url, err := p.Storage.Upload(ctx, "leaderboards/"+report.Filename,
			bytes.NewReader(report.Content), int64(len(report.Content)), report.ContentType)
		if err != nil {
			logger.Log.Warn("Report archive failed", zap.Uint("test_id", testID), zap.Error(err))
		} else {
			report.URL = url
		}
	}

	result := &PublishResult{Report: report, URL: report.URL}
	delivered, failed := p.deliver(ctx, report, p.Operators.List())
	result.Delivered, result.Failed = int(delivered), int(failed)

	logger.Log.Info("Report published",
		zap.Uint("test_id", testID),
		zap.Int("submissions", len(lb.Entries)),
		zap.Int("delivered", result.Delivered),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (p *ReportPublisher) render(lb *Leaderboard, now time.Time) (*Report, error) {
	body, err := RenderHTML(lb)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return &Report{
		TestID:      lb.Test.ID,
		Title:       lb.Test.Title,
		Filename:    fmt.Sprintf("leaderboard_test_%d_%s_%s.html", lb.Test.ID, now.Format("1504"), model.GenerateUUID()[:8]),
		ContentType: util.MimeHTML,
		Content:     body,
		Summary:     Summary(lb, summaryTop),
	}, nil
}

func (p *ReportPublisher) deliver(ctx context.Context, report *Report, recipients []config.Operator) (delivered, failed int64) {
	var g errgroup.Group
	if p.Concurrency > 0 {
		g.SetLimit(p.Concurrency)
	}

	for _, op := range recipients {
		op := op
		g.Go(func() error {
			if err := p.Deliverer.DeliverReport(ctx, op, report); err != nil {
				atomic.AddInt64(&failed, 1)
				monitoring.ReportDeliveriesTotal.WithLabelValues("failed").Inc()
				logger.Log.Warn("Report delivery failed",
					zap.Uint("test_id", report.TestID),
					zap.Int64("operator", op.ID),
					zap.Error(err))
				return nil
			}
			atomic.AddInt64(&delivered, 1)
			monitoring.ReportDeliveriesTotal.WithLabelValues("ok").Inc()
			return nil
		})
	}
	_ = g.Wait()
	return delivered, failed
}
