package autopilot

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"github.com/tatianab/lostcastle/internal/affordance"
	"github.com/tatianab/lostcastle/internal/models"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/choose_action.txt
var chooseActionPrompt string

var chooseActionTmpl = template.Must(template.New("choose_action").Parse(chooseActionPrompt))

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini asks a Gemini model which action to take. Answers that do not name
// an enabled action fall back to Strongest.
type Gemini struct {
	client *genai.Client
	model  contentGenerator
}

func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel("gemini-2.5-flash")
	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

func (g *Gemini) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Choose(ctx context.Context, turn Turn) (string, error) {
	enabled := affordance.Enabled(turn.Options)
	if len(enabled) == 0 {
		return "", ErrNoChoice
	}

	prompt, err := renderPrompt(turn.Attacker, turn.Opponent, enabled)
	if err != nil {
		return "", err
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}

	name, err := parseChoice(string(text), turn.Options)
	if err != nil {
		log.Printf("autopilot: %v; falling back to strongest", err)
		return Strongest{}.Choose(ctx, turn)
	}
	return name, nil
}

func renderPrompt(attacker, opponent models.Player, actions []models.Action) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Attacker models.Player
		Opponent models.Player
		Actions  []models.Action
	}{attacker, opponent, actions}
	if err := chooseActionTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// parseChoice reads the model's YAML answer and checks it names an enabled
// action.
func parseChoice(text string, opts []affordance.Option) (string, error) {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```yaml")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")

	var answer struct {
		Action string `yaml:"action"`
		Reason string `yaml:"reason"`
	}
	if err := yaml.Unmarshal([]byte(clean), &answer); err != nil {
		return "", fmt.Errorf("failed to parse choice YAML: %v\nOutput was: %s", err, clean)
	}
	name := strings.TrimSpace(answer.Action)
	o, ok := affordance.Find(opts, name)
	if !ok {
		return "", fmt.Errorf("model chose unknown action %q", name)
	}
	if !o.Enabled {
		return "", fmt.Errorf("model chose unaffordable action %q", name)
	}
	return name, nil
}
