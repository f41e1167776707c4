// Package mocks provides mock implementations of the ports in internal/core.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks.
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockLatestResultRepository(ctrl)
//	repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
package mocks

// Critique
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=critic_mock.go github.com/target/uxaudit/internal/core Critic

// Relay
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=relayer_mock.go github.com/target/uxaudit/internal/core Relayer

// Save, Get, Clear, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=latest_result_repository_mock.go github.com/target/uxaudit/internal/core LatestResultRepository

// Show, Clear
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=notifier_mock.go github.com/target/uxaudit/internal/core Notifier
