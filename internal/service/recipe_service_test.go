package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/eatai/internal/assistant"
	"github.com/vbonduro/eatai/internal/db"
	"github.com/vbonduro/eatai/internal/domain"
	"github.com/vbonduro/eatai/internal/metrics"
	"github.com/vbonduro/eatai/internal/store"
)

const twoRecipes = `[
	{"name":"Tomato Soup","description":"Warm","ingredients":["tomatoes","stock"],"instructions":["Simmer","Blend"],"cookTime":"30 minutes","servings":2,"difficulty":"Easy"},
	{"name":"Bruschetta","description":"Crunchy","ingredients":["bread","tomatoes"],"instructions":["Toast","Top"],"cookTime":"10 minutes","servings":4,"difficulty":"Medium"}
]`

// fakeClient scripts an assistant backend. Run statuses are returned in
// order; the last one repeats.
type fakeClient struct {
	mu sync.Mutex

	statuses     []assistant.RunState
	reply        string
	createErr    error
	failImageFor map[string]bool
	imageDelay   time.Duration
	statusHook   func()

	prompts        []string
	models         []string
	imagePrompts   []string
	polls          int
	cancelledRuns  []string
	closedSessions []string
	inflight       int
	maxInflight    int
}

func (f *fakeClient) CreateSession(ctx context.Context) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return "session-1", nil
}

func (f *fakeClient) PostPrompt(ctx context.Context, session, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, text)
	return nil
}

func (f *fakeClient) StartRun(ctx context.Context, session, modelID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models = append(f.models, modelID)
	return "run-1", nil
}

func (f *fakeClient) GetRunStatus(ctx context.Context, session, run string) (assistant.RunState, error) {
	if err := ctx.Err(); err != nil {
		return assistant.RunState{}, err
	}
	f.mu.Lock()
	i := min(f.polls, len(f.statuses)-1)
	f.polls++
	hook := f.statusHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.statuses[i], nil
}

func (f *fakeClient) GetLatestReply(ctx context.Context, session string) (string, error) {
	return f.reply, nil
}

func (f *fakeClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.imagePrompts = append(f.imagePrompts, prompt)
	f.inflight++
	f.maxInflight = max(f.maxInflight, f.inflight)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if f.imageDelay > 0 {
		select {
		case <-time.After(f.imageDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	for name := range f.failImageFor {
		if strings.Contains(prompt, `"`+name+`"`) {
			return "", fmt.Errorf("%w: content policy", domain.ErrUpstream)
		}
	}
	name := prompt[strings.Index(prompt, `"`)+1:]
	name = name[:strings.Index(name, `"`)]
	return "https://images.example/" + strings.ReplaceAll(name, " ", "-") + ".png", nil
}

func (f *fakeClient) CancelRun(ctx context.Context, session, run string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelledRuns = append(f.cancelledRuns, run)
	return nil
}

func (f *fakeClient) CloseSession(ctx context.Context, session string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closedSessions = append(f.closedSessions, session)
	return nil
}

func completed() []assistant.RunState {
	return []assistant.RunState{{Status: assistant.RunQueued}, {Status: assistant.RunInProgress}, {Status: assistant.RunCompleted}}
}

type recipeFixture struct {
	svc    *RecipeService
	foods  *store.FoodStore
	client *fakeClient
	reg    *prometheus.Registry
}

func newRecipeFixture(t *testing.T, client *fakeClient, cfg RecipeConfig) *recipeFixture {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	if cfg.AssistantID == "" {
		cfg.AssistantID = "asst_test"
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 2 * time.Second
	}

	reg := prometheus.NewRegistry()
	foods := store.NewFoodStore(d)
	return &recipeFixture{
		svc:    NewRecipeService(foods, client, cfg, metrics.New(reg), slog.Default()),
		foods:  foods,
		client: client,
		reg:    reg,
	}
}

func (f *recipeFixture) stock(t *testing.T, ownerID int64, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := f.foods.Create(context.Background(), ownerID, domain.FoodFields{Name: name, Quantity: "some"})
		require.NoError(t, err)
	}
}

func TestRecipeServiceGenerate_TwoRecipesWithIllustrations(t *testing.T) {
	client := &fakeClient{statuses: completed(), reply: twoRecipes}
	f := newRecipeFixture(t, client, RecipeConfig{})
	f.stock(t, 1, "tomatoes", "bread")

	recipes, err := f.svc.Generate(context.Background(), 1, domain.RecipeRequest{Style: "Italian"})
	require.NoError(t, err)
	require.Len(t, recipes, 2)

	assert.Equal(t, "Tomato Soup", recipes[0].Name)
	assert.Equal(t, "Bruschetta", recipes[1].Name)
	assert.Equal(t, "https://images.example/Tomato-Soup.png", recipes[0].Image)
	assert.Equal(t, "https://images.example/Bruschetta.png", recipes[1].Image)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Ingredients: tomatoes, bread")
	assert.Contains(t, client.prompts[0], "Style: Italian")
	assert.Equal(t, []string{"asst_test"}, client.models)
	assert.Equal(t, 3, client.polls)
	assert.Empty(t, client.cancelledRuns)
	assert.Equal(t, []string{"session-1"}, client.closedSessions)

	assert.Equal(t, float64(1), generationCount(t, f.reg, metrics.OutcomeSuccess))
}

func TestRecipeServiceGenerate_Frittata(t *testing.T) {
	client := &fakeClient{
		statuses: completed(),
		reply:    `[{"name":"Spinach Feta Frittata","description":"Baked eggs","ingredients":["eggs","spinach","feta"],"instructions":["Whisk eggs","Add spinach and feta","Bake 20 min"],"cookTime":"25 minutes","servings":4,"difficulty":"Easy"}]`,
	}
	f := newRecipeFixture(t, client, RecipeConfig{})
	f.stock(t, 1, "eggs", "spinach", "feta")

	recipes, err := f.svc.Generate(context.Background(), 1, domain.RecipeRequest{Style: "Mediterranean", Allergies: "none"})
	require.NoError(t, err)
	require.Len(t, recipes, 1)

	r := recipes[0]
	assert.Equal(t, "Spinach Feta Frittata", r.Name)
	assert.Equal(t, []string{"eggs", "spinach", "feta"}, r.Ingredients)
	assert.Equal(t, []string{"Whisk eggs", "Add spinach and feta", "Bake 20 min"}, r.Instructions)
	assert.Equal(t, "25 minutes", r.CookTime)
	assert.Equal(t, 4, r.Servings)
	assert.Equal(t, domain.DifficultyEasy, r.Difficulty)
	assert.NotEmpty(t, r.Image)

	assert.Contains(t, client.prompts[0], "Ingredients: eggs, spinach, feta")
	require.Len(t, client.imagePrompts, 1)
	assert.Equal(t, `Top-down view of a finished dish called "Spinach Feta Frittata". Mediterranean style. High quality food photography.`, client.imagePrompts[0])
}

func TestRecipeServiceGenerate_RunFailed(t *testing.T) {
	client := &fakeClient{statuses: []assistant.RunState{
		{Status: assistant.RunQueued},
		{Status: assistant.RunInProgress},
		{Status: assistant.RunFailed, FailureReason: "server_error: model overloaded"},
	}}
	f := newRecipeFixture(t, client, RecipeConfig{})

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Generate(context.Background(), 1, domain.RecipeRequest{})
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, domain.ErrUpstream)
		assert.Contains(t, err.Error(), "model overloaded")
	case <-time.After(5 * time.Second):
		t.Fatal("Generate did not return after a failed run")
	}
	assert.Equal(t, 3, client.polls)
	assert.Empty(t, client.cancelledRuns)
	assert.Equal(t, []string{"session-1"}, client.closedSessions)
}

func TestRecipeServiceGenerate_TerminalFailureStatuses(t *testing.T) {
	for _, status := range []assistant.RunStatus{assistant.RunCancelled, assistant.RunExpired} {
		t.Run(string(status), func(t *testing.T) {
			client := &fakeClient{statuses: []assistant.RunState{{Status: status}}}
			f := newRecipeFixture(t, client, RecipeConfig{})

			_, err := f.svc.Generate(context.Background(), 1, domain.RecipeRequest{})
			require.ErrorIs(t, err, domain.ErrUpstream)
			assert.NotErrorIs(t, err, domain.ErrTimeout)
		})
	}
}

func TestRecipeServiceGenerate_TimeoutWithinBudget(t *testing.T) {
	client := &fakeClient{statuses: []assistant.RunState{{Status: assistant.RunInProgress}}}
	budget := 150 * time.Millisecond
	f := newRecipeFixture(t, client, RecipeConfig{PollInterval: 10 * time.Millisecond, PollTimeout: budget})

	start := time.Now()
	_, err := f.svc.Generate(context.Background(), 1, domain.RecipeRequest{})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, domain.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, budget)
	assert.Less(t, elapsed, budget+time.Second)
	assert.Equal(t, []string{"run-1"}, client.cancelledRuns)
	assert.Equal(t, []string{"session-1"}, client.closedSessions)
	assert.Equal(t, float64(1), generationCount(t, f.reg, metrics.OutcomeTimeout))
}

func TestRecipeServiceGenerate_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeClient{statuses: []assistant.RunState{{Status: assistant.RunQueued}}}
	client.statusHook = func() {
		client.mu.Lock()
		polls := client.polls
		client.mu.Unlock()
		if polls == 2 {
			cancel()
		}
	}
	f := newRecipeFixture(t, client, RecipeConfig{})

	recipes, err := f.svc.Generate(ctx, 1, domain.RecipeRequest{})
	require.ErrorIs(t, err, domain.ErrCancelled)
	assert.NotErrorIs(t, err, domain.ErrTimeout)
	assert.Nil(t, recipes)
	assert.Equal(t, []string{"run-1"}, client.cancelledRuns)
	assert.Equal(t, []string{"session-1"}, client.closedSessions)
}

func TestRecipeServiceGenerate_MalformedReply(t *testing.T) {
	client := &fakeClient{
		statuses: completed(),
		reply:    `[{"name":"Soup","description":"d","instructions":["Boil"],"cookTime":"5","servings":2,"difficulty":"Easy"}]`,
	}
	f := newRecipeFixture(t, client, RecipeConfig{})

	_, err := f.svc.Generate(context.Background(), 1, domain.RecipeRequest{})
	require.ErrorIs(t, err, domain.ErrParse)
	assert.NotErrorIs(t, err, domain.ErrUpstream)
	assert.Empty(t, client.imagePrompts)
}

func TestRecipeServiceGenerate_UnknownDifficultyIsPerRecipe(t *testing.T) {
	client := &fakeClient{
		statuses: completed(),
		reply: `[
			{"name":"A","description":"d","ingredients":["x"],"instructions":["y"],"cookTime":"5","servings":1,"difficulty":"Easy"},
			{"name":"B","description":"d","ingredients":["x"],"instructions":["y"],"cookTime":"5","servings":1,"difficulty":"Extreme"},
			{"name":"C","description":"d","ingredients":["x"],"instructions":["y"],"cookTime":"5","servings":1,"difficulty":"Hard"}
		]`,
	}
	f := newRecipeFixture(t, client, RecipeConfig{})

	recipes, err := f.svc.Generate(context.Background(), 1, domain.RecipeRequest{})
	require.NoError(t, err)
	require.Len(t, recipes, 3)
	assert.Equal(t, domain.DifficultyEasy, recipes[0].Difficulty)
	assert.Equal(t, domain.DifficultyUnknown, recipes[1].Difficulty)
	assert.Equal(t, domain.DifficultyHard, recipes[2].Difficulty)
}

func TestRecipeServiceGenerate_OneIllustrationFails(t *testing.T) {
	client := &fakeClient{
		statuses: completed(),
		reply: `[
			{"name":"A","description":"d","ingredients":["x"],"instructions":["y"],"cookTime":"5","servings":1,"difficulty":"Easy"},
			{"name":"B","description":"d","ingredients":["x"],"instructions":["y"],"cookTime":"5","servings":1,"difficulty":"Easy"},
			{"name":"C","description":"d","ingredients":["x"],"instructions":["y"],"cookTime":"5","servings":1,"difficulty":"Easy"}
		]`,
		failImageFor: map[string]bool{"B": true},
	}
	f := newRecipeFixture(t, client, RecipeConfig{})

	recipes, err := f.svc.Generate(context.Background(), 1, domain.RecipeRequest{})
	require.NoError(t, err)
	require.Len(t, recipes, 3)
	assert.NotEmpty(t, recipes[0].Image)
	assert.Empty(t, recipes[1].Image)
	assert.NotEmpty(t, recipes[2].Image)
}

func TestRecipeServiceGenerate_IllustrationConcurrencyIsBounded(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := range 6 {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"name":"R%d","description":"d","ingredients":["x"],"instructions":["y"],"cookTime":"5","servings":1}`, i)
	}
	sb.WriteString("]")

	client := &fakeClient{statuses: completed(), reply: sb.String(), imageDelay: 20 * time.Millisecond}
	f := newRecipeFixture(t, client, RecipeConfig{ImageConcurrency: 2})

	recipes, err := f.svc.Generate(context.Background(), 1, domain.RecipeRequest{})
	require.NoError(t, err)
	assert.Len(t, recipes, 6)
	assert.Len(t, client.imagePrompts, 6)
	assert.LessOrEqual(t, client.maxInflight, 2)
	for i, r := range recipes {
		assert.Equal(t, fmt.Sprintf("R%d", i), r.Name)
		assert.NotEmpty(t, r.Image)
	}
}

func TestRecipeServiceGenerate_EmptyInventoryUsesPlaceholder(t *testing.T) {
	client := &fakeClient{statuses: completed(), reply: twoRecipes}
	f := newRecipeFixture(t, client, RecipeConfig{})
	f.stock(t, 2, "caviar")

	recipes, err := f.svc.Generate(context.Background(), 1, domain.RecipeRequest{})
	require.NoError(t, err)
	assert.Len(t, recipes, 2)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], assistant.NoIngredients)
	assert.NotContains(t, client.prompts[0], "caviar", "another owner's inventory must not leak into the prompt")
}

func TestRecipeServiceGenerate_SessionErrorIsUpstream(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"already upstream", fmt.Errorf("%w: 401 unauthorized", domain.ErrUpstream)},
		{"plain error", errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{createErr: tt.err}
			f := newRecipeFixture(t, client, RecipeConfig{})

			_, err := f.svc.Generate(context.Background(), 1, domain.RecipeRequest{})
			require.ErrorIs(t, err, domain.ErrUpstream)
			assert.Contains(t, err.Error(), "create session")
			assert.Empty(t, client.closedSessions)
		})
	}
}

func TestRecipeServiceGenerate_ValidatesRequest(t *testing.T) {
	client := &fakeClient{statuses: completed(), reply: twoRecipes}
	f := newRecipeFixture(t, client, RecipeConfig{})

	zero := 0
	_, err := f.svc.Generate(context.Background(), 1, domain.RecipeRequest{Servings: &zero})
	require.ErrorIs(t, err, domain.ErrValidation)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "servings", verr.Field)

	_, err = f.svc.Generate(context.Background(), 1, domain.RecipeRequest{Difficulty: "Legendary"})
	require.ErrorIs(t, err, domain.ErrValidation)

	assert.Empty(t, client.prompts, "invalid requests never reach the assistant")
}

// generationCount reads the generations counter for outcome from reg.
func generationCount(t *testing.T, reg *prometheus.Registry, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "eatai_recipes_generations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
