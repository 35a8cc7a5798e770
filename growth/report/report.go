package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/postloop/growthd/models"

	"github.com/flosch/pongo2/v6"
)

// Cumulative, human-readable report. Each controller run appends one block.
type Report interface {
	Append(ctx context.Context, block string) error
}

// blocks are plain text, so free-form fields are marked safe to skip HTML escaping
var blockTemplate = pongo2.Must(pongo2.FromString(`=== Growth plan {{ window_start }} to {{ window_end }} (generated {{ generated_at }}) ===
Targets: {{ plan.TargetPosts }} posts/hour, {{ plan.TargetReplies }} replies/hour
Exploration rate: {{ plan.ExplorationRate|floatformat:2 }}
{% if plan.BackoffApplied %}Backoff: {{ plan.BackoffReason|safe }}
{% endif %}Explanation: {{ plan.ReasonSummary|safe }}
Top topics: {% for w in plan.StrategyWeights.Topics %}{{ w.Value|safe }} ({{ w.Weight|floatformat:3 }}){% if not forloop.Last %}, {% endif %}{% empty %}none yet{% endfor %}
Top formats: {% for w in plan.StrategyWeights.Formats %}{{ w.Value|safe }} ({{ w.Weight|floatformat:3 }}){% if not forloop.Last %}, {% endif %}{% empty %}none yet{% endfor %}
Top generators: {% for w in plan.StrategyWeights.Generators %}{{ w.Value|safe }} ({{ w.Weight|floatformat:3 }}){% if not forloop.Last %}, {% endif %}{% empty %}none yet{% endfor %}
`))

// RenderBlock formats one report block for the plan.
func RenderBlock(plan *models.GrowthPlan, generatedAt time.Time) (string, error) {
	out, err := blockTemplate.Execute(pongo2.Context{
		"plan":         plan,
		"window_start": plan.WindowStart.UTC().Format(time.RFC3339),
		"window_end":   plan.WindowEnd.UTC().Format(time.RFC3339),
		"generated_at": generatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("rendering report block: %w", err)
	}
	return out, nil
}

// Appends blocks to a text file, creating it (and parent directories) on
// first write.
type FileReport struct {
	Path string
	mu   sync.Mutex
}

var _ Report = (*FileReport)(nil)

func NewFileReport(path string) *FileReport {
	return &FileReport{Path: path}
}

func (r *FileReport) Append(ctx context.Context, block string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dir := filepath.Dir(r.Path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(r.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening report file: %w", err)
	}
	defer f.Close()
	if !strings.HasSuffix(block, "\n") {
		block += "\n"
	}
	if _, err := f.WriteString(block + "\n"); err != nil {
		return fmt.Errorf("appending to report file: %w", err)
	}
	return nil
}

type MemReport struct {
	mu     sync.Mutex
	Blocks []string
}

var _ Report = (*MemReport)(nil)

func (r *MemReport) Append(ctx context.Context, block string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Blocks = append(r.Blocks, block)
	return nil
}
