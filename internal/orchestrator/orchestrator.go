// File: internal/orchestrator/orchestrator.go
// Description: Manages the high-level lifecycle of one run: acquire the
// browsing session, drive the site automation through its phases with the
// retry policy applied at phase level, and finalize the run summary on every
// exit path.

package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/igor20192/HumanFlow/internal/automation"
	"github.com/igor20192/HumanFlow/internal/behavior"
	"github.com/igor20192/HumanFlow/internal/config"
	"github.com/igor20192/HumanFlow/internal/results"
	"github.com/igor20192/HumanFlow/internal/session"
)

// browsingSession is the slice of session.Session the orchestrator drives.
type browsingSession interface {
	Context() context.Context
	Release()
}

// sessionAcquirer produces browsing sessions. Production uses the session
// manager; tests substitute a fake so release semantics can be asserted
// without a browser.
type sessionAcquirer interface {
	Acquire(ctx context.Context) (browsingSession, error)
}

// managerAcquirer adapts session.Manager to the sessionAcquirer seam.
type managerAcquirer struct {
	m *session.Manager
}

func (a managerAcquirer) Acquire(ctx context.Context) (browsingSession, error) {
	sess, err := a.m.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Orchestrator runs the storefront flow end to end.
type Orchestrator struct {
	cfg       *config.Config
	logger    *zap.Logger
	sessions  sessionAcquirer
	retryWait time.Duration
	assemble  func(tabCtx context.Context, summary *results.RunSummary) (automation.SiteAutomation, error)
}

// New creates an Orchestrator.
func New(cfg *config.Config, logger *zap.Logger) (*Orchestrator, error) {
	if cfg == nil || logger == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	o := &Orchestrator{
		cfg:       cfg,
		logger:    logger.Named("orchestrator"),
		sessions:  managerAcquirer{m: session.NewManager(cfg, logger)},
		retryWait: automation.DefaultWait,
	}
	o.assemble = o.assembleAutomation
	return o, nil
}

// Run executes one complete run. The summary is always finalized and emitted,
// success or failure, and the browsing session is always released.
func (o *Orchestrator) Run(ctx context.Context) (*results.RunSummary, error) {
	runID := uuid.New().String()
	summary := results.New(runID)
	o.logger.Info("Starting run", zap.String("run_id", runID))

	runErr := o.execute(ctx, summary)

	summary.Finalize()
	o.logger.Info("Run summary", summary.Fields()...)
	o.writeSummaryArtifact(summary)

	if runErr != nil {
		o.logger.Error("Run failed", zap.String("run_id", runID), zap.Error(runErr))
		return summary, runErr
	}
	o.logger.Info("Run completed", zap.String("run_id", runID))
	return summary, nil
}

func (o *Orchestrator) execute(ctx context.Context, summary *results.RunSummary) error {
	sess, err := o.sessions.Acquire(ctx)
	if err != nil {
		return err
	}
	defer sess.Release()

	tabCtx := sess.Context()

	auto, err := o.assemble(tabCtx, summary)
	if err != nil {
		return err
	}

	if err := o.runPhases(tabCtx, auto); err != nil {
		// One diagnostic capture before the error surfaces, best effort.
		o.diagnosticScreenshot(tabCtx, auto)
		return err
	}
	return nil
}

// assembleAutomation builds the production collaborators on the live tab.
func (o *Orchestrator) assembleAutomation(tabCtx context.Context, summary *results.RunSummary) (automation.SiteAutomation, error) {
	page, err := session.NewPage(tabCtx, o.cfg.Browser, o.logger)
	if err != nil {
		return nil, fmt.Errorf("preparing page: %w", err)
	}

	sim := behavior.New(
		behavior.NewCDPExecutor(),
		o.cfg.Simulation,
		o.cfg.Browser.VisibilityTimeout,
		o.logger,
		nil,
	)

	return automation.NewSauceDemo(automation.SauceDemoParams{
		Page:        page,
		Behavior:    sim,
		Sink:        &automation.FileSink{Dir: o.cfg.Run.ScreenshotDir},
		Logger:      o.logger,
		Summary:     summary,
		BaseURL:     o.cfg.Run.BaseURL,
		NumProducts: o.requestedProducts(),
	})
}

// runPhases drives the state machine: setup (fatal on failure), login and the
// action sequence, both wrapped by the retry policy.
func (o *Orchestrator) runPhases(ctx context.Context, auto automation.SiteAutomation) error {
	if err := auto.Setup(ctx); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	creds := &automation.Credentials{
		Username: o.cfg.Run.Username,
		Password: o.cfg.Run.Password,
	}
	err := automation.Retry(ctx, o.logger, "login",
		automation.DefaultAttempts, o.retryWait, automation.Retryable,
		func(ctx context.Context) error {
			return auto.Login(ctx, creds)
		})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	err = automation.Retry(ctx, o.logger, "perform_actions",
		automation.DefaultAttempts, o.retryWait, automation.Retryable,
		func(ctx context.Context) error {
			return auto.PerformActions(ctx)
		})
	if err != nil {
		return fmt.Errorf("action sequence: %w", err)
	}
	return nil
}

func (o *Orchestrator) diagnosticScreenshot(ctx context.Context, auto automation.SiteAutomation) {
	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := auto.Screenshot(sctx, "error"); err != nil {
		o.logger.Warn("Diagnostic screenshot failed", zap.Error(err))
	}
}

// requestedProducts converts the configured product count into the optional
// request the automation expects: zero means unset.
func (o *Orchestrator) requestedProducts() *int {
	if o.cfg.Run.NumProducts == 0 {
		return nil
	}
	n := o.cfg.Run.NumProducts
	return &n
}

// writeSummaryArtifact persists the summary as JSON when a destination is
// configured.
func (o *Orchestrator) writeSummaryArtifact(summary *results.RunSummary) {
	if o.cfg.Run.SummaryFile == "" {
		return
	}
	f, err := os.Create(o.cfg.Run.SummaryFile)
	if err != nil {
		o.logger.Warn("Failed to create summary file", zap.Error(err))
		return
	}
	defer f.Close()
	if err := summary.WriteJSON(f); err != nil {
		o.logger.Warn("Failed to write summary file", zap.Error(err))
	}
}
