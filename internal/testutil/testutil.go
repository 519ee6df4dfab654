// Package testutil provides testing helpers shared across packages.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
)

// MockElement is a mock implementation of attention.Scoreable.
type MockElement struct {
	mock.Mock
	id string
}

// ID returns the element ID fixed at construction.
func (m *MockElement) ID() string {
	return m.id
}

// Score mocks the Score method.
func (m *MockElement) Score(c attention.Context) (int, error) {
	args := m.Called(c)
	return args.Int(0), args.Error(1)
}

// Needs mocks the Needs method.
func (m *MockElement) Needs() (attention.Needs, error) {
	args := m.Called()
	return args.Get(0).(attention.Needs), args.Error(1)
}

// NewMockElement creates a mock element that always reports score and needs.
func NewMockElement(t *testing.T, elementID string, score int, needs attention.Needs) *MockElement {
	t.Helper()
	m := &MockElement{id: elementID}

	m.On("Score", mock.Anything).Return(score, nil).Maybe()
	m.On("Needs").Return(needs, nil).Maybe()

	return m
}

// NewFailingElement creates a mock element whose Score returns err.
func NewFailingElement(t *testing.T, elementID string, err error) *MockElement {
	t.Helper()
	m := &MockElement{id: elementID}

	m.On("Score", mock.Anything).Return(0, err).Maybe()
	m.On("Needs").Return(attention.Needs{}, nil).Maybe()

	return m
}

// NewPanickingElement creates a mock element whose Needs panics.
func NewPanickingElement(t *testing.T, elementID string, score int) *MockElement {
	t.Helper()
	m := &MockElement{id: elementID}

	m.On("Score", mock.Anything).Return(score, nil).Maybe()
	m.On("Needs").Run(func(mock.Arguments) {
		panic("needs exploded")
	}).Return(attention.Needs{}, nil).Maybe()

	return m
}

// NewLogger returns a logger that writes through t.Log.
func NewLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

// Widget builds a widget with explicit weight, urgency and needs.
func Widget(elementID string, urgency attention.Urgency, weight float64, needs attention.Needs) *attention.Widget {
	return attention.NewWidgetWithID(elementID, attention.KindCard, attention.Attributes{
		Urgency: urgency,
		Weight:  Float(weight),
		Needs: &attention.PartialNeeds{
			Screen:    Float(needs.Screen),
			Audio:     Float(needs.Audio),
			Cognitive: Float(needs.Cognitive),
		},
	})
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// Capacity returns a budget with the given maxima.
func Capacity(screen, audio, cognitive float64) attention.Budget {
	return attention.Budget{
		MaxScreenSpace:   screen,
		MaxAudioTime:     audio,
		MaxCognitiveLoad: cognitive,
	}
}
