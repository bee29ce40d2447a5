// ABOUTME: Tests for the question answering pipeline and prompt assembly
// ABOUTME: Uses fake embedder and generator doubles; no network involved
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"docquery/internal/models"
	"docquery/internal/storage"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	reply   string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func populatedIndex() *storage.VectorIndex {
	index := storage.NewVectorIndex()
	index.Append(models.Chunk{ID: "c1", Text: "alpha is the first letter", Source: "a.txt", Embedding: []float64{1, 0}})
	index.Append(models.Chunk{ID: "c2", Text: "beta follows alpha", Source: "b.txt", Embedding: []float64{0.7, 0.7}})
	index.Append(models.Chunk{ID: "c3", Text: "gamma rounds out the trio", Source: "c.txt", Embedding: []float64{0, 1}})
	return index
}

func TestAnswerer_EmptyIndexAdvisory(t *testing.T) {
	embedder := &fakeEmbedder{}
	generator := &fakeGenerator{reply: "should never be used"}
	answerer := NewAnswerer(embedder, generator, storage.NewVectorIndex(), AnswererOptions{})

	answer, err := answerer.Answer(context.Background(), "anything at all?")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != NoDocumentsMessage {
		t.Errorf("answer = %q, want advisory %q", answer, NoDocumentsMessage)
	}
	if embedder.callCount() != 0 {
		t.Errorf("embedder calls = %d, want 0 for empty index", embedder.callCount())
	}
	if generator.calls != 0 {
		t.Errorf("generator calls = %d, want 0 for empty index", generator.calls)
	}
}

func TestAnswerer_PromptShape(t *testing.T) {
	embedder := &fakeEmbedder{}
	generator := &fakeGenerator{reply: "Alpha comes first."}
	opts := AnswererOptions{EmbedModel: "embed-m", GenModel: "gen-m", TopK: 2}
	answerer := NewAnswerer(embedder, generator, populatedIndex(), opts)

	answer, err := answerer.Answer(context.Background(), "What is alpha?")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != "Alpha comes first." {
		t.Errorf("answer = %q, want generator reply", answer)
	}

	prompt := generator.lastPrompt()
	if !strings.HasPrefix(prompt, promptInstruction) {
		t.Errorf("prompt should open with the grounding instruction, got %q", prompt)
	}
	if !strings.HasSuffix(prompt, "Question: What is alpha?") {
		t.Errorf("prompt should close with the question, got %q", prompt)
	}

	first := strings.Index(prompt, "[source: a.txt]")
	second := strings.Index(prompt, "[source: b.txt]")
	if first == -1 || second == -1 {
		t.Fatalf("prompt missing source attributions: %q", prompt)
	}
	if first > second {
		t.Error("context should be ordered by descending similarity")
	}
	if !strings.Contains(prompt, "alpha is the first letter") {
		t.Error("prompt missing best-matching chunk text")
	}
	if strings.Contains(prompt, "gamma rounds out the trio") {
		t.Error("prompt includes chunk beyond the retrieval depth")
	}
}

func TestAnswerer_UsesConfiguredModels(t *testing.T) {
	var gotEmbedModel, gotText string
	embedder := &fakeEmbedder{fn: func(call int, model, text string) ([]float64, error) {
		gotEmbedModel, gotText = model, text
		return []float64{1, 0}, nil
	}}
	generator := &fakeGenerator{reply: "ok"}
	opts := AnswererOptions{EmbedModel: "embed-m", GenModel: "gen-m", TopK: 1}

	answerer := NewAnswerer(embedder, generator, populatedIndex(), opts)
	if _, err := answerer.Answer(context.Background(), "the question"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if gotEmbedModel != "embed-m" {
		t.Errorf("embed model = %q, want embed-m", gotEmbedModel)
	}
	if gotText != "the question" {
		t.Errorf("embedded text = %q, want the question verbatim", gotText)
	}
}

func TestAnswerer_TopKDefaultsWhenUnset(t *testing.T) {
	index := storage.NewVectorIndex()
	for i := 0; i < 5; i++ {
		index.Append(models.Chunk{
			ID:        "c" + strings.Repeat("x", i),
			Text:      "chunk " + strings.Repeat("x", i),
			Source:    "f.txt",
			Embedding: []float64{1, float64(i)},
		})
	}

	generator := &fakeGenerator{reply: "ok"}
	answerer := NewAnswerer(&fakeEmbedder{}, generator, index, AnswererOptions{TopK: 0})
	if _, err := answerer.Answer(context.Background(), "q"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	got := strings.Count(generator.lastPrompt(), "[source:")
	if got != DefaultTopK {
		t.Errorf("context chunks = %d, want default depth %d", got, DefaultTopK)
	}
}

func TestAnswerer_EmptyGenerationFallback(t *testing.T) {
	for i, reply := range []string{"", "   ", "\n\t "} {
		t.Run(fmt.Sprintf("blank_reply_%d", i), func(t *testing.T) {
			generator := &fakeGenerator{reply: reply}
			answerer := NewAnswerer(&fakeEmbedder{}, generator, populatedIndex(), AnswererOptions{TopK: 1})

			answer, err := answerer.Answer(context.Background(), "q")
			if err != nil {
				t.Fatalf("Answer failed: %v", err)
			}
			if answer != EmptyAnswerMessage {
				t.Errorf("answer = %q, want fallback %q", answer, EmptyAnswerMessage)
			}
		})
	}
}

func TestAnswerer_EmbedErrorPropagates(t *testing.T) {
	boom := errors.New("embed down")
	embedder := &fakeEmbedder{fn: func(call int, model, text string) ([]float64, error) {
		return nil, boom
	}}
	generator := &fakeGenerator{reply: "unreachable"}
	answerer := NewAnswerer(embedder, generator, populatedIndex(), AnswererOptions{})

	_, err := answerer.Answer(context.Background(), "q")
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped embed failure", err)
	}
	if generator.calls != 0 {
		t.Errorf("generator calls = %d, want 0 after embed failure", generator.calls)
	}
}

func TestAnswerer_GenerateErrorPropagates(t *testing.T) {
	boom := errors.New("generate down")
	generator := &fakeGenerator{err: boom}
	answerer := NewAnswerer(&fakeEmbedder{}, generator, populatedIndex(), AnswererOptions{})

	_, err := answerer.Answer(context.Background(), "q")
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped generate failure", err)
	}
}

func TestAnswerer_SourcesOrderedByScore(t *testing.T) {
	generator := &fakeGenerator{reply: "ok"}
	answerer := NewAnswerer(&fakeEmbedder{}, generator, populatedIndex(), AnswererOptions{TopK: 2})

	result, err := answerer.AnswerWithSources(context.Background(), "q")
	if err != nil {
		t.Fatalf("AnswerWithSources failed: %v", err)
	}

	if len(result.Sources) != 2 {
		t.Fatalf("len(Sources) = %d, want 2", len(result.Sources))
	}
	if result.Sources[0].Chunk.Source != "a.txt" {
		t.Errorf("Sources[0] from %q, want a.txt", result.Sources[0].Chunk.Source)
	}
	if result.Sources[0].Score < result.Sources[1].Score {
		t.Error("sources should be ordered by descending score")
	}
	if result.Text != "ok" {
		t.Errorf("Text = %q, want generator reply", result.Text)
	}
}
