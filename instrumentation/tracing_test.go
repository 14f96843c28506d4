package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func newTestSpanInstrumentation(t *testing.T) *Instrumentation {
	t.Helper()

	inst, err := New(Config{
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = inst.Shutdown(context.Background()) })
	return inst
}

func TestRecordError(t *testing.T) {
	inst := newTestSpanInstrumentation(t)

	ctx := context.Background()
	_, span := inst.Tracer("server").Start(ctx, "test-span")
	defer span.End()

	// Test recording an error
	testErr := errors.New("test error")
	RecordError(span, testErr)

	// Nil error and nil span are tolerated
	RecordError(span, nil)
	RecordError(nil, testErr)
}

func TestSetSpanSuccess(t *testing.T) {
	inst := newTestSpanInstrumentation(t)

	ctx := context.Background()
	_, span := inst.Tracer("server").Start(ctx, "test-span")
	defer span.End()

	SetSpanSuccess(span)
	SetSpanSuccess(nil)
}

func TestSetSpanError(t *testing.T) {
	inst := newTestSpanInstrumentation(t)

	ctx := context.Background()
	_, span := inst.Tracer("server").Start(ctx, "test-span")
	defer span.End()

	SetSpanError(span, "something went wrong")
	SetSpanError(nil, "nil span")
}

func TestSetSpanAttributes(t *testing.T) {
	inst := newTestSpanInstrumentation(t)

	ctx := context.Background()
	_, span := inst.Tracer("server").Start(ctx, "test-span")
	defer span.End()

	SetSpanAttributes(span, attribute.String(AttrGrantType, "authorization_code"))
	SetSpanAttributes(nil, attribute.String(AttrGrantType, "refresh_token"))
}

func TestAddOAuthFlowAttributes(t *testing.T) {
	inst := newTestSpanInstrumentation(t)

	ctx := context.Background()
	_, span := inst.Tracer("server").Start(ctx, "test-span")
	defer span.End()

	AddOAuthFlowAttributes(span, "test-client", "mcp:tools", "https://mcp.example.com")
	AddOAuthFlowAttributes(span, "test-client-2", "", "")
	AddOAuthFlowAttributes(span, "", "mcp:tools", "")
	AddOAuthFlowAttributes(nil, "client", "scope", "resource")
}

func TestAddPKCEAttributes(t *testing.T) {
	inst := newTestSpanInstrumentation(t)

	ctx := context.Background()
	_, span := inst.Tracer("server").Start(ctx, "test-span")
	defer span.End()

	AddPKCEAttributes(span, "S256")
	AddPKCEAttributes(span, "")
	AddPKCEAttributes(nil, "S256")
}

func TestAddStorageAttributes(t *testing.T) {
	inst := newTestSpanInstrumentation(t)

	ctx := context.Background()
	_, span := inst.Tracer("storage").Start(ctx, "test-span")
	defer span.End()

	AddStorageAttributes(span, "save_client", "memory")
	AddStorageAttributes(nil, "save_client", "memory")
}

func TestAddHTTPAttributes(t *testing.T) {
	inst := newTestSpanInstrumentation(t)

	ctx := context.Background()
	_, span := inst.Tracer("http").Start(ctx, "test-span")
	defer span.End()

	AddHTTPAttributes(span, "POST", "/token", 200)
	AddHTTPAttributes(nil, "POST", "/token", 200)
}
