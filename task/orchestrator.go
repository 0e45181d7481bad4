package task

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"unicode"

	"github.com/hupe1980/agentlab/artifact"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/history"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/participant"
	"github.com/hupe1980/agentlab/prompt"
	"github.com/hupe1980/agentlab/strategy"
)

// DefaultAppName scopes materialized artifacts when no app name is configured.
const DefaultAppName = "agentlab"

// LocalRunner executes agent definitions in process.
type LocalRunner interface {
	Run(ctx context.Context, def core.AgentDefinition, in strategy.Input, events core.EventLog) strategy.Result
}

// DeployedRunner executes turns on a deployed agent engine.
type DeployedRunner interface {
	Run(ctx context.Context, p *participant.DeployedEngine, in strategy.Input, events core.EventLog) strategy.Result
}

// RemoteRunner executes turns against an A2A agent.
type RemoteRunner interface {
	Run(ctx context.Context, p *participant.RemoteProtocol, in strategy.Input, events core.EventLog) strategy.Result
}

// Options configures an Orchestrator.
type Options struct {
	// AppName scopes artifact keys. Defaults to DefaultAppName.
	AppName string
	Logger  logging.Logger

	// HistoryMaxDepth bounds history reconstruction. Zero means
	// history.DefaultMaxDepth.
	HistoryMaxDepth int

	// Local defaults to strategy.NewLocal over the document store.
	Local LocalRunner
	// Deployed has no default. Tasks addressing a deployed engine fail
	// when it is unset.
	Deployed DeployedRunner
	// Remote defaults to strategy.NewRemote.
	Remote RemoteRunner
}

// Orchestrator runs tasks against a document store.
type Orchestrator struct {
	store        core.DocumentStore
	resolver     *participant.Resolver
	history      *history.Reconstructor
	materializer *artifact.Materializer
	assembler    *prompt.Assembler

	appName  string
	local    LocalRunner
	deployed DeployedRunner
	remote   RemoteRunner
	logger   logging.Logger
}

// New creates an Orchestrator. artifacts versions materialized context and
// objects serves image bytes referenced by storage URIs.
func New(store core.DocumentStore, artifacts core.ArtifactStore, objects core.ObjectStore, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		AppName: DefaultAppName,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)
	if opts.AppName == "" {
		opts.AppName = DefaultAppName
	}
	if opts.Local == nil {
		opts.Local = strategy.NewLocal(store, func(o *strategy.LocalOptions) { o.Logger = logger })
	}
	if opts.Remote == nil {
		opts.Remote = strategy.NewRemote(func(o *strategy.RemoteOptions) { o.Logger = logger })
	}

	return &Orchestrator{
		store:    store,
		resolver: participant.NewResolver(store),
		history: history.New(store, func(o *history.Options) {
			o.MaxDepth = opts.HistoryMaxDepth
			o.Logger = logger
		}),
		materializer: artifact.NewMaterializer(artifacts, objects, func(o *artifact.MaterializerOptions) { o.Logger = logger }),
		assembler:    prompt.New(artifacts, objects, func(o *prompt.Options) { o.Logger = logger }),
		appName:      opts.AppName,
		local:        opts.Local,
		deployed:     opts.Deployed,
		remote:       opts.Remote,
		logger:       logger,
	}
}

// Execute runs the task described by req and records the outcome on the
// assistant message. A returned error has already been written to the
// message whenever the message could be addressed.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (err error) {
	if req.ChatID == "" || req.AssistantMessageID == "" {
		err = req.Validate()
		o.logger.Error("Rejected task without message address", "error", err)
		return err
	}

	logger := o.scopedLogger(req)

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: logging.Stack()}
		}
		if err != nil {
			o.fail(ctx, logger, req, err)
		}
	}()

	if err := req.Validate(); err != nil {
		return err
	}

	logger.Info("Starting task", "agent_id", req.AgentID, "model_id", req.ModelID)

	return o.execute(ctx, logger, req)
}

func (o *Orchestrator) execute(ctx context.Context, logger logging.Logger, req Request) error {
	if err := o.store.UpdateRun(ctx, req.ChatID, req.AssistantMessageID, core.RunUpdate{Status: core.StatusPtr(core.RunStatusRunning)}); err != nil {
		return fmt.Errorf("mark run as running: %w", err)
	}

	msg, err := o.store.GetMessage(ctx, req.ChatID, req.AssistantMessageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return &core.NotFoundError{Kind: "message", ID: req.AssistantMessageID}
	}

	p, err := o.resolver.Resolve(ctx, req.AgentID, req.ModelID)
	if err != nil {
		return err
	}
	logger.Info("Resolved participant", "participant", p.ParticipantID(), "type", fmt.Sprintf("%T", p))

	hist, err := o.history.Reconstruct(ctx, req.ChatID, msg.ParentMessageID)
	if err != nil {
		return err
	}
	logger.Info("Reconstructed history", "messages", len(hist))

	scope := artifact.Scope{App: o.appName, UserID: req.UserID, SessionID: req.ChatID}

	refs, err := o.artifacts(ctx, logger, req, msg, scope)
	if err != nil {
		return err
	}

	mode := prompt.ImageReference
	if participant.IsLocal(p) {
		mode = prompt.ImageInline
	}

	content, chars := o.assembler.Assemble(ctx, hist, refs, scope, mode)
	if err := o.store.UpdateRun(ctx, req.ChatID, req.AssistantMessageID, core.RunUpdate{InputCharacterCount: core.IntPtr(chars)}); err != nil {
		return fmt.Errorf("persist input character count: %w", err)
	}
	logger.Info("Assembled prompt", "parts", len(content.Parts), "characters", chars, "image_mode", mode.String())

	events := core.NewRunEventLog(o.store, req.ChatID, req.AssistantMessageID)

	res, err := o.dispatch(ctx, p, strategy.Input{Content: content, UserID: req.UserID}, events)
	if err != nil {
		return err
	}

	status := core.RunStatusCompleted
	if res.Failed() {
		status = core.RunStatusError
	}

	final := core.RunUpdate{
		Status:            core.StatusPtr(status),
		Content:           core.StringPtr(res.FinalText),
		FinalResponseText: core.StringPtr(res.FinalText),
		QueryErrorDetails: append([]string{}, res.ErrorDetails...),
		Complete:          true,
	}
	if err := o.store.UpdateRun(ctx, req.ChatID, req.AssistantMessageID, final); err != nil {
		return fmt.Errorf("persist final run state: %w", err)
	}

	logger.Info("Task finished", "status", status, "events", events.Count(), "errors", len(res.ErrorDetails))

	return nil
}

// artifacts returns the context references of the turn, materializing raw
// items on the first execution only.
func (o *Orchestrator) artifacts(ctx context.Context, logger logging.Logger, req Request, msg *core.Message, scope artifact.Scope) ([]core.ArtifactRef, error) {
	if msg.Run != nil && len(msg.Run.ProcessedArtifacts) > 0 {
		logger.Info("Reusing processed artifacts", "artifacts", len(msg.Run.ProcessedArtifacts))
		return msg.Run.ProcessedArtifacts, nil
	}

	items := req.StuffedContextItems
	if len(items) == 0 && msg.Run != nil {
		items = msg.Run.RawStuffedContextItems
	}
	if len(items) == 0 {
		return nil, nil
	}

	refs := o.materializer.Materialize(ctx, items, scope)
	logger.Info("Materialized context", "items", len(items), "artifacts", len(refs))

	if err := o.store.UpdateRun(ctx, req.ChatID, req.AssistantMessageID, core.RunUpdate{ProcessedArtifacts: refs}); err != nil {
		return nil, fmt.Errorf("persist processed artifacts: %w", err)
	}

	return refs, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, p participant.Config, in strategy.Input, events core.EventLog) (strategy.Result, error) {
	switch v := p.(type) {
	case *participant.LocalAgent:
		return o.local.Run(ctx, v.Definition, in, events), nil
	case *participant.RawModel:
		return o.local.Run(ctx, v.Definition, in, events), nil
	case *participant.DeployedEngine:
		if o.deployed == nil {
			return strategy.Result{}, fmt.Errorf("agent %s is deployed to Agent Engine but no engine client is configured", v.AgentID)
		}
		return o.deployed.Run(ctx, v, in, events), nil
	case *participant.RemoteProtocol:
		return o.remote.Run(ctx, v, in, events), nil
	default:
		return strategy.Result{}, fmt.Errorf("unsupported participant %T", p)
	}
}

// fail records an error that escaped the pipeline. A failing update is
// logged and dropped.
func (o *Orchestrator) fail(ctx context.Context, logger logging.Logger, req Request, err error) {
	msg := fmt.Sprintf("Unhandled exception in task handler for message %s: %s - %v", req.AssistantMessageID, ErrorType(err), err)

	var pe *PanicError
	if errors.As(err, &pe) {
		logger.Error(msg, "stack_trace", pe.Stack)
	} else {
		logging.ErrorWithStack(logger, err, msg)
	}

	upd := core.RunUpdate{
		Status:             core.StatusPtr(core.RunStatusError),
		AppendErrorDetails: []string{"Task handler exception: " + msg},
		Complete:           true,
	}
	if uerr := o.store.UpdateRun(context.WithoutCancel(ctx), req.ChatID, req.AssistantMessageID, upd); uerr != nil {
		logger.Error("Failed to record task failure", "error", uerr)
	}
}

func (o *Orchestrator) scopedLogger(req Request) logging.Logger {
	if l, ok := o.logger.(*logging.AgentLabLogger); ok {
		return l.WithComponent("task").WithSession(req.ChatID, req.AssistantMessageID)
	}
	return o.logger
}

// PanicError carries a panic recovered while executing a task.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// ErrorType names the first exported error type in err's chain, for example
// NotFoundError. Plain errors are reported as Error.
func ErrorType(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		t := reflect.TypeOf(e)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if name := t.Name(); name != "" && unicode.IsUpper([]rune(name)[0]) {
			return name
		}
	}
	return "Error"
}
