package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/techagentng/challanx/config"
	"github.com/techagentng/challanx/db"
	"github.com/techagentng/challanx/logger"
	"github.com/techagentng/challanx/metrics"
	"github.com/techagentng/challanx/models"
)

const (
	providerViolation = "violation"
	providerPlate     = "plate"
)

// DetectionService wraps the external violation detector and plate reader.
// Provider failures never surface as errors: they yield no signal (ok is
// false) and the report simply stays pending.
type DetectionService interface {
	Detect(ctx context.Context, mediaRef string) (models.DetectionResult, bool)
	DetectPlate(ctx context.Context, mediaRef string) (*models.PlateResult, bool)
}

type detectionService struct {
	mediaRepo    db.MediaRepository
	client       *http.Client
	detectionURL string
	plateURL     string
	threshold    float64
	timeout      time.Duration
}

func NewDetectionService(mediaRepo db.MediaRepository, client *http.Client, conf *config.Config) DetectionService {
	if client == nil {
		client = &http.Client{}
	}
	return &detectionService{
		mediaRepo:    mediaRepo,
		client:       client,
		detectionURL: conf.DetectionURL,
		plateURL:     conf.PlateURL,
		threshold:    conf.AutoVerifyThreshold,
		timeout:      conf.DetectionTimeout,
	}
}

func noSignal() models.DetectionResult {
	return models.DetectionResult{Labels: []string{}}
}

func (d *detectionService) Detect(ctx context.Context, mediaRef string) (models.DetectionResult, bool) {
	if d.detectionURL == "" {
		return noSignal(), false
	}
	mediaURL, err := d.mediaRepo.ResolveMediaURL(ctx, mediaRef)
	if err != nil {
		logger.Log.Warn().Err(err).Str("media_ref", mediaRef).Msg("detection: cannot resolve media")
		metrics.DetectionCalls.WithLabelValues(providerViolation, "media_error").Inc()
		return noSignal(), false
	}

	var resp models.DetectionResponse
	if err := d.call(ctx, providerViolation, d.detectionURL, models.DetectionRequest{MediaURL: mediaURL}, &resp); err != nil {
		logger.Log.Warn().Err(err).Str("media_ref", mediaRef).Msg("detection failed, report stays pending")
		return noSignal(), false
	}

	if resp.Confidence == nil {
		metrics.DetectionCalls.WithLabelValues(providerViolation, "invalid").Inc()
		return noSignal(), false
	}
	confidence := *resp.Confidence
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		logger.Log.Warn().Float64("confidence", confidence).Msg("detection returned out of range confidence")
		metrics.DetectionCalls.WithLabelValues(providerViolation, "invalid").Inc()
		return noSignal(), false
	}

	labels := resp.DetectedViolations
	if labels == nil {
		labels = []string{}
	}
	metrics.DetectionCalls.WithLabelValues(providerViolation, "ok").Inc()
	return models.DetectionResult{
		Labels:     labels,
		Confidence: confidence,
		AutoVerify: confidence >= d.threshold,
	}, true
}

func (d *detectionService) DetectPlate(ctx context.Context, mediaRef string) (*models.PlateResult, bool) {
	if d.plateURL == "" {
		return nil, false
	}
	mediaURL, err := d.mediaRepo.ResolveMediaURL(ctx, mediaRef)
	if err != nil {
		metrics.DetectionCalls.WithLabelValues(providerPlate, "media_error").Inc()
		return nil, false
	}

	var resp models.PlateResponse
	if err := d.call(ctx, providerPlate, d.plateURL, models.PlateRequest{ImageURL: mediaURL}, &resp); err != nil {
		logger.Log.Warn().Err(err).Str("media_ref", mediaRef).Msg("plate detection failed")
		return nil, false
	}
	metrics.DetectionCalls.WithLabelValues(providerPlate, "ok").Inc()

	result := &models.PlateResult{IsValid: resp.IsValid, Message: resp.Message}
	if resp.Plate != nil {
		result.Plate = *resp.Plate
	}
	if resp.VehicleType != nil {
		result.VehicleType = *resp.VehicleType
	}
	return result, true
}

// call posts body to url and decodes a 2xx JSON answer into out, bounded by
// the configured timeout.
func (d *detectionService) call(ctx context.Context, provider, url string, body, out interface{}) error {
	start := time.Now()
	defer func() {
		metrics.DetectionDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	}()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		metrics.DetectionCalls.WithLabelValues(provider, "error").Inc()
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		result := "error"
		if ctx.Err() == context.DeadlineExceeded {
			result = "timeout"
		}
		metrics.DetectionCalls.WithLabelValues(provider, result).Inc()
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.DetectionCalls.WithLabelValues(provider, "bad_status").Inc()
		return fmt.Errorf("%s provider returned %d", provider, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.DetectionCalls.WithLabelValues(provider, "malformed").Inc()
		return fmt.Errorf("decode %s response: %w", provider, err)
	}
	return nil
}
