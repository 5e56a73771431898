package testutil

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/amoghku/marketplace-pim/internal/commerce"
)

// SyncCall is one request the fake syncer received.
type SyncCall struct {
	Resource string
	Items    interface{}
}

// FakeSyncer records sync requests and answers with Result.
type FakeSyncer struct {
	mu     sync.Mutex
	Result commerce.Result
	calls  []SyncCall
}

func NewFakeSyncer() *FakeSyncer {
	return &FakeSyncer{Result: commerce.Result{OK: true, Status: 200}}
}

func (f *FakeSyncer) SyncCategories(ctx context.Context, items interface{}) commerce.Result {
	return f.record(ctx, commerce.ResourceCategories, items)
}

func (f *FakeSyncer) SyncCollections(ctx context.Context, items interface{}) commerce.Result {
	return f.record(ctx, commerce.ResourceCollections, items)
}

// record fails like the real client does once ctx is done.
func (f *FakeSyncer) record(ctx context.Context, resource string, items interface{}) commerce.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, SyncCall{Resource: resource, Items: items})
	if err := ctx.Err(); err != nil {
		return commerce.Result{OK: false, Error: err.Error()}
	}
	return f.Result
}

func (f *FakeSyncer) Calls() []SyncCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SyncCall(nil), f.calls...)
}

// NewLogger returns a silent logger whose entries can be inspected via the hook.
func NewLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}
