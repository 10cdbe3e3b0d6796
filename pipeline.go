package claimhooks

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cowhooks/claimhooks/pkg/logging"
)

// Pipeline builds hooks, assembles them into an AppData document and
// publishes the document. Steps run strictly in sequence.
type Pipeline struct {
	builders    []registeredBuilder
	appCode     string
	environment string
	validator   Validator
	publisher   Publisher
	dryRun      bool
	logger      *zap.Logger
}

type registeredBuilder struct {
	position HookPosition
	builder  HookBuilder
}

// RunResult is the outcome of a pipeline run
type RunResult struct {
	Document     AppDataDocument
	AppData      AppData
	Published    bool
	RegistryHash string // Hash echoed by the registry, empty when not published
	PublishErr   error  // Set when publishing failed; Run still succeeds
}

// PipelineOption configures the pipeline
type PipelineOption func(*Pipeline)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithAppCode sets the appCode of the produced document
func WithAppCode(appCode string) PipelineOption {
	return func(p *Pipeline) {
		p.appCode = appCode
	}
}

// WithDocumentEnvironment sets the environment field of the produced document
func WithDocumentEnvironment(environment string) PipelineOption {
	return func(p *Pipeline) {
		p.environment = environment
	}
}

// WithValidator sets a validator run on the serialized document
func WithValidator(validator Validator) PipelineOption {
	return func(p *Pipeline) {
		p.validator = validator
	}
}

// WithPublisher sets the registry the document is uploaded to
func WithPublisher(publisher Publisher) PipelineOption {
	return func(p *Pipeline) {
		p.publisher = publisher
	}
}

// WithDryRun skips publishing
func WithDryRun(dryRun bool) PipelineOption {
	return func(p *Pipeline) {
		p.dryRun = dryRun
	}
}

// WithHook registers a builder at creation time
func WithHook(position HookPosition, builder HookBuilder) PipelineOption {
	return func(p *Pipeline) {
		p.Register(position, builder)
	}
}

// NewPipeline creates a new pipeline
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		appCode: DefaultAppCode,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Register appends a hook builder to the pre or post list
func (p *Pipeline) Register(position HookPosition, builder HookBuilder) *Pipeline {
	p.builders = append(p.builders, registeredBuilder{position: position, builder: builder})
	return p
}

// Build runs every registered builder and returns the document and its
// serialized, hashed form. Nothing is published.
func (p *Pipeline) Build(ctx context.Context) (AppDataDocument, AppData, error) {
	if len(p.builders) == 0 {
		return AppDataDocument{}, AppData{}, NewHookError(ErrCodeNoHookBuilders, "", fmt.Errorf("no hook builders registered"))
	}

	var pre, post []Hook
	for _, rb := range p.builders {
		name := rb.builder.Name()
		if rb.position != HookPre && rb.position != HookPost {
			return AppDataDocument{}, AppData{}, NewHookError(ErrCodeInvalidHook, name, fmt.Errorf("unknown hook position %q", rb.position))
		}

		hook, err := rb.builder.Build(ctx)
		if err != nil {
			return AppDataDocument{}, AppData{}, NewHookError(ErrCodeBuildFailed, name, err)
		}
		if err := hook.Validate(); err != nil {
			return AppDataDocument{}, AppData{}, NewHookError(ErrCodeInvalidHook, name, err)
		}

		p.logger.Debug("hook built",
			zap.String("hook", name),
			zap.String("position", string(rb.position)),
			zap.String("target", hook.Target),
			zap.String("gas_limit", hook.GasLimit),
		)

		if rb.position == HookPost {
			post = append(post, hook)
		} else {
			pre = append(pre, hook)
		}
	}

	var docOpts []DocumentOption
	if p.environment != "" {
		docOpts = append(docOpts, WithEnvironment(p.environment))
	}
	doc := NewAppDataDocument(p.appCode, pre, post, docOpts...)

	appData, err := NewAppData(doc)
	if err != nil {
		return AppDataDocument{}, AppData{}, NewHookError(ErrCodeSerializeFailed, "", err)
	}

	if p.validator != nil {
		if err := p.validator.Validate(appData.Data); err != nil {
			return AppDataDocument{}, AppData{}, NewHookError(ErrCodeInvalidAppData, "", err)
		}
	}

	return doc, appData, nil
}

// Run builds the document and publishes it. A publish failure is logged and
// reported through RunResult.PublishErr; it does not fail the run.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	doc, appData, err := p.Build(ctx)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Document: doc,
		AppData:  appData,
	}

	p.logger.Info("app data built",
		zap.String(logging.FieldHashHex, appData.Hash),
		zap.Int("pre_hooks", len(doc.Metadata.Hooks.Pre)),
		zap.Int("post_hooks", len(doc.Metadata.Hooks.Post)),
	)

	if p.dryRun {
		p.logger.Info("dry run, skipping publish", zap.String(logging.FieldHashHex, appData.Hash))
		return result, nil
	}

	if p.publisher == nil {
		result.PublishErr = NewHookError(ErrCodeNoPublisher, "", fmt.Errorf("no publisher configured"))
		p.logger.Error("failed to publish app data", zap.String(logging.FieldHashHex, appData.Hash), zap.Error(result.PublishErr))
		return result, nil
	}

	registryHash, err := p.publisher.PutAppData(ctx, appData)
	if err != nil {
		result.PublishErr = err
		fields := []zap.Field{zap.String(logging.FieldHashHex, appData.Hash), zap.Error(err)}
		var statusErr StatusError
		if errors.As(err, &statusErr) {
			fields = append(fields, zap.Int(logging.FieldStatus, statusErr.Status()))
		}
		p.logger.Error("failed to publish app data", fields...)
		return result, nil
	}

	result.Published = true
	result.RegistryHash = registryHash
	p.logger.Info("app data published",
		zap.String(logging.FieldHashHex, appData.Hash),
		zap.String("registry_hash", registryHash),
	)

	return result, nil
}
