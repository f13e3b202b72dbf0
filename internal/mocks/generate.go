package mocks

// Mock generation directives. Run `go generate ./internal/mocks/` to regenerate.

//go:generate go run go.uber.org/mock/mockgen -source=../metrics/cache.go -destination=mock_gauge_store.go -package=mocks
//go:generate go run go.uber.org/mock/mockgen -source=../metrics/recorder.go -destination=mock_recorder.go -package=mocks
