package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/imran-siddique/mute-agent/core"
	"github.com/imran-siddique/mute-agent/logging"
	"github.com/imran-siddique/mute-agent/model"
)

// defaultInstructions steer the model toward emitting a single JSON action
// object the reasoner can turn into a proposal.
const defaultInstructions = `You decide the next action for an execution agent.
Respond with a single JSON object of the shape
{"action": "<name>", "params": {...}, "requires": ["<capability>", ...]}
and nothing else.`

// ModelReasonerOptions configures a ModelReasoner.
type ModelReasonerOptions struct {
	// Instructions replace the default system instructions.
	Instructions string

	// ContextDimension is the snapshot dimension serialized into the
	// prompt. Defaults to core.DimensionSemantic.
	ContextDimension core.Dimension

	// ContextDepth bounds the number of nodes serialized into the prompt.
	ContextNodeLimit int

	// Logger receives outcome logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// ModelReasoner is a Reasoning role backed by a language model. Propose
// serializes a slice of the context snapshot into a prompt, asks the model
// for the next action and parses the reply into a proposal; OnOutcome logs
// the outcome so the next proposal can react to it through the knowledge
// graph.
type ModelReasoner struct {
	name  string
	model model.Model
	opts  ModelReasonerOptions
}

var _ core.Reasoner = (*ModelReasoner)(nil)

// modelAction is the JSON reply shape expected from the model.
type modelAction struct {
	Action   string         `json:"action"`
	Params   map[string]any `json:"params"`
	Requires []string       `json:"requires"`
}

// NewModelReasoner constructs a ModelReasoner around a model.
func NewModelReasoner(name string, m model.Model, optFns ...func(o *ModelReasonerOptions)) *ModelReasoner {
	opts := ModelReasonerOptions{
		Instructions:     defaultInstructions,
		ContextDimension: core.DimensionSemantic,
		ContextNodeLimit: 32,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelReasoner{name: name, model: m, opts: opts}
}

// Name returns the reasoner's name.
func (r *ModelReasoner) Name() string { return r.name }

// Propose implements core.Reasoner.
func (r *ModelReasoner) Propose(ctx context.Context, snapshot core.Snapshot) (*core.Proposal, error) {
	prompt, err := r.buildPrompt(snapshot)
	if err != nil {
		return nil, err
	}

	resp, err := r.model.Generate(ctx, model.Request{Instructions: r.opts.Instructions, Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("model generation failed: %w", err)
	}

	action, err := parseAction(resp.Text)
	if err != nil {
		return nil, err
	}

	requires := make([]core.CapabilityTag, 0, len(action.Requires))
	for _, tag := range action.Requires {
		requires = append(requires, core.CapabilityTag(tag))
	}

	snapshotID := ""
	if snapshot != nil {
		snapshotID = snapshot.ID()
	}
	return core.NewProposal(action.Action, action.Params, requires, snapshotID), nil
}

// OnOutcome implements core.Reasoner.
func (r *ModelReasoner) OnOutcome(_ context.Context, outcome core.Outcome) {
	if outcome.Failed() {
		r.opts.Logger.Warn("proposal %s failed: %s", outcome.ProposalID, outcome.Error)
		return
	}
	r.opts.Logger.Info("proposal %s finished with status %s", outcome.ProposalID, outcome.Status)
}

// buildPrompt serializes a bounded slice of the snapshot's context dimension.
func (r *ModelReasoner) buildPrompt(snapshot core.Snapshot) (string, error) {
	var sb strings.Builder
	sb.WriteString("Known facts:\n")

	if snapshot == nil {
		sb.WriteString("(none)\n")
		return sb.String(), nil
	}

	cursor, err := snapshot.Query(r.opts.ContextDimension, core.Pattern{})
	if err != nil {
		return "", fmt.Errorf("snapshot query failed: %w", err)
	}

	count := 0
	for {
		match, ok := cursor.Next()
		if !ok || count >= r.opts.ContextNodeLimit {
			break
		}
		if match.Node == nil {
			continue
		}
		payload, _ := json.Marshal(match.Node.Payload)
		fmt.Fprintf(&sb, "- %s (%s): %s\n", match.Node.ID, match.Node.Type, payload)
		count++
	}
	if count == 0 {
		sb.WriteString("(none)\n")
	}
	return sb.String(), nil
}

// parseAction extracts the JSON action object from a model reply, tolerating
// surrounding prose by slicing from the first '{' to the last '}'.
func parseAction(text string) (*modelAction, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("model reply carries no action object: %q", text)
	}

	var action modelAction
	if err := json.Unmarshal([]byte(text[start:end+1]), &action); err != nil {
		return nil, fmt.Errorf("malformed action object: %w", err)
	}
	if action.Action == "" {
		return nil, fmt.Errorf("action object is missing the action name")
	}
	return &action, nil
}
