package reconciler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conslogger/conslogger/internal/client/syncgraph"
	"github.com/conslogger/conslogger/internal/models"
)

// mockGraph фиксирует вызовы графа синхронизации
type mockGraph struct {
	conns        []*models.Connection
	connsErr     error
	broadcastErr error
	sendErr      error

	broadcasts []models.Scope
	sent       []string
}

func (m *mockGraph) Connections(ctx context.Context) ([]*models.Connection, error) {
	return m.conns, m.connsErr
}

func (m *mockGraph) BroadcastScope(ctx context.Context, scope models.Scope) error {
	m.broadcasts = append(m.broadcasts, scope)
	return m.broadcastErr
}

func (m *mockGraph) SendRequest(ctx context.Context, targetHandle string, scope *models.Scope) (syncgraph.SendOutcome, error) {
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.sent = append(m.sent, targetHandle)
	return syncgraph.OutcomeRequested, nil
}

// mockSelector фиксирует смену выбранной площадки
type mockSelector struct {
	selected []string
}

func (m *mockSelector) Select(ctx context.Context, id string) (*models.Site, error) {
	m.selected = append(m.selected, id)
	return &models.Site{ID: id}, nil
}

func newTestReconciler(graph *mockGraph, sel *mockSelector) *Reconciler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, graph, sel)
}

var newSite = &models.Site{ID: "xyz789", Name: "New Site"}

func TestReconciler_Begin_NoPartners(t *testing.T) {
	graph := &mockGraph{}
	sel := &mockSelector{}
	rec := newTestReconciler(graph, sel)

	// Без партнёров выбор применяется сразу, граф не трогается
	state, err := rec.Begin(context.Background(), newSite)
	require.NoError(t, err)
	assert.Equal(t, StateApplied, state)
	assert.Equal(t, []string{"xyz789"}, sel.selected)
	assert.Empty(t, graph.broadcasts)
}

func TestReconciler_Begin_WithPartners(t *testing.T) {
	graph := &mockGraph{conns: []*models.Connection{{PartnerID: "bob-id"}}}
	sel := &mockSelector{}
	rec := newTestReconciler(graph, sel)

	state, err := rec.Begin(context.Background(), newSite)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingChoice, state)
	assert.Equal(t, newSite, rec.Pending())
	// Выбор еще не применен
	assert.Empty(t, sel.selected)

	// Вторая попытка поверх незавершенной запрещена
	_, err = rec.Begin(context.Background(), newSite)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReconciler_Choose_LimitCurrent(t *testing.T) {
	graph := &mockGraph{conns: []*models.Connection{{PartnerID: "bob-id"}}}
	sel := &mockSelector{}
	rec := newTestReconciler(graph, sel)

	_, err := rec.Begin(context.Background(), newSite)
	require.NoError(t, err)

	state, err := rec.Choose(context.Background(), OptionLimitCurrent)
	require.NoError(t, err)
	assert.Equal(t, StateApplied, state)

	// Scope новой площадки разослан всем партнёрам, выбор применен
	require.Len(t, graph.broadcasts, 1)
	assert.Equal(t, "xyz789", graph.broadcasts[0].SiteID())
	assert.Equal(t, []string{"xyz789"}, sel.selected)
	assert.Nil(t, rec.Pending())
}

// Частичный отказ рассылки не откатывает переключение
func TestReconciler_Choose_LimitCurrent_PartialFailure(t *testing.T) {
	graph := &mockGraph{
		conns:        []*models.Connection{{PartnerID: "bob-id"}},
		broadcastErr: fmt.Errorf("%w: 1 of 2", syncgraph.ErrPartialPropagation),
	}
	sel := &mockSelector{}
	rec := newTestReconciler(graph, sel)

	_, err := rec.Begin(context.Background(), newSite)
	require.NoError(t, err)

	state, err := rec.Choose(context.Background(), OptionLimitCurrent)
	assert.ErrorIs(t, err, syncgraph.ErrPartialPropagation)
	assert.Equal(t, StateApplied, state)
	assert.Equal(t, []string{"xyz789"}, sel.selected)
}

func TestReconciler_Choose_Solo(t *testing.T) {
	graph := &mockGraph{conns: []*models.Connection{{PartnerID: "bob-id"}}}
	sel := &mockSelector{}
	rec := newTestReconciler(graph, sel)

	_, err := rec.Begin(context.Background(), newSite)
	require.NoError(t, err)

	state, err := rec.Choose(context.Background(), OptionSolo)
	require.NoError(t, err)
	assert.Equal(t, StateApplied, state)

	// Граф не тронут
	assert.Empty(t, graph.broadcasts)
	assert.Empty(t, graph.sent)
	assert.Equal(t, []string{"xyz789"}, sel.selected)
}

func TestReconciler_Choose_Cancel(t *testing.T) {
	graph := &mockGraph{conns: []*models.Connection{{PartnerID: "bob-id"}}}
	sel := &mockSelector{}
	rec := newTestReconciler(graph, sel)

	_, err := rec.Begin(context.Background(), newSite)
	require.NoError(t, err)

	state, err := rec.Choose(context.Background(), OptionCancel)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, state)

	// Ничего не изменилось
	assert.Empty(t, sel.selected)
	assert.Nil(t, rec.Pending())

	// После отмены можно начать заново
	state, err = rec.Begin(context.Background(), newSite)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingChoice, state)
}

func TestReconciler_AddNewFlow(t *testing.T) {
	graph := &mockGraph{conns: []*models.Connection{{PartnerID: "bob-id"}}}
	sel := &mockSelector{}
	rec := newTestReconciler(graph, sel)

	_, err := rec.Begin(context.Background(), newSite)
	require.NoError(t, err)

	state, err := rec.Choose(context.Background(), OptionAddNew)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingInput, state)

	state, err = rec.SubmitPartner(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, StateApplied, state)

	// Приглашение ушло, существующие связи не тронуты
	assert.Equal(t, []string{"carol"}, graph.sent)
	assert.Empty(t, graph.broadcasts)
	assert.Equal(t, []string{"xyz789"}, sel.selected)
}

// Ошибка приглашения оставляет попытку в AwaitingInput
func TestReconciler_SubmitPartner_Retryable(t *testing.T) {
	graph := &mockGraph{conns: []*models.Connection{{PartnerID: "bob-id"}}}
	sel := &mockSelector{}
	rec := newTestReconciler(graph, sel)

	_, err := rec.Begin(context.Background(), newSite)
	require.NoError(t, err)
	_, err = rec.Choose(context.Background(), OptionAddNew)
	require.NoError(t, err)

	graph.sendErr = syncgraph.ErrNotFound
	state, err := rec.SubmitPartner(context.Background(), "nobody")
	assert.ErrorIs(t, err, syncgraph.ErrNotFound)
	assert.Equal(t, StateAwaitingInput, state)
	assert.Empty(t, sel.selected)

	// Со второй попытки проходит
	graph.sendErr = nil
	state, err = rec.SubmitPartner(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, StateApplied, state)
}

func TestReconciler_InvalidTransitions(t *testing.T) {
	graph := &mockGraph{}
	sel := &mockSelector{}
	rec := newTestReconciler(graph, sel)

	_, err := rec.Choose(context.Background(), OptionSolo)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = rec.SubmitPartner(context.Background(), "carol")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
