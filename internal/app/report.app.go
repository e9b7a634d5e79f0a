package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"portfolioreport/internal/domain"
	"portfolioreport/internal/logger"
	"portfolioreport/internal/service"
	"portfolioreport/internal/util"

	"github.com/google/uuid"
)

var ErrInputFailed = errors.New("portfolio input failed")

// ReportApp runs one report end to end: read the portfolio, process it,
// render the message and hand it to the delivery channel.
type ReportApp interface {
	Run(ctx context.Context) error
}

type reportAppHandler struct {
	PortfolioService service.PortfolioService
	ReportService    service.ReportService
	DeliveryService  service.DeliveryService
	Now              func() time.Time
	Out              io.Writer
}

func NewReportApp(
	portfolioService service.PortfolioService,
	reportService service.ReportService,
	deliveryService service.DeliveryService,
	now func() time.Time,
) ReportApp {
	return reportAppHandler{
		PortfolioService: portfolioService,
		ReportService:    reportService,
		DeliveryService:  deliveryService,
		Now:              now,
		Out:              os.Stdout,
	}
}

// Run only fails when the portfolio could not be read, in which case the
// error wraps ErrInputFailed. Row and delivery failures are part of a
// successful run.
func (h reportAppHandler) Run(ctx context.Context) error {
	runID := uuid.New()
	log := logger.FromContext(ctx).With("runID", runID.String())
	ctx = logger.WithContext(ctx, log)

	profile, endProfile := domain.NewProfile()
	ctx = domain.ContextWithProfile(ctx, profile)
	defer func() {
		endProfile()
		profileBytes, err := profile.ToJsonBytes()
		if err != nil {
			log.Warnf("failed to encode run profile: %v", err)
			return
		}
		log.Infow("run profile", "profile", string(profileBytes))
	}()

	at := h.Now()
	log.Infof("starting portfolio report at %s", util.FormatReportTimestamp(at))
	log.Infow("state transition", "state", domain.RunState_Idle)

	report, err := h.PortfolioService.BuildReport(ctx)
	if err != nil {
		log.Infow("state transition", "state", domain.RunState_InputFailed)
		message := h.ReportService.RenderInputFailure(err)
		log.Error(message)
		h.DeliveryService.Send(ctx, message)
		return fmt.Errorf("%w: %w", ErrInputFailed, err)
	}

	log.Infow("state transition", "state", domain.RunState_Rendering)
	_, endRenderSpan := profile.StartNewSpan(string(domain.RunState_Rendering))
	message := h.ReportService.Render(*report, at)
	endRenderSpan()
	fmt.Fprintln(h.Out, message)

	log.Infow("state transition", "state", domain.RunState_Delivering)
	_, endDeliverySpan := profile.StartNewSpan(string(domain.RunState_Delivering))
	delivered := h.DeliveryService.Send(ctx, message)
	endDeliverySpan()
	if !delivered {
		fmt.Fprintln(h.Out, "Failed to send message.")
	}

	log.Infow("state transition",
		"state", domain.RunState_Done,
		"rows", len(report.Results),
		"failed", report.FailedCount(),
		"delivered", delivered,
	)
	return nil
}
