package observability

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tbourn/astro-chart-backend/internal/config"
)

func keepGlobals(t *testing.T) {
	t.Helper()
	tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func enabled(name string) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1,
	}
}

func TestSetupOTel_DisabledLeavesGlobals(t *testing.T) {
	keepGlobals(t)
	before := otel.GetTracerProvider()

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Endpoint: "ignored:4317"}, "v0")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatal("tracer provider replaced while disabled")
	}
}

func TestSetupOTel_InstallsProviderAndPropagator(t *testing.T) {
	keepGlobals(t)

	for _, insecure := range []bool{true, false} {
		cfg := enabled("astro-test")
		cfg.Insecure = insecure
		// Unsampled spans still propagate but never reach the exporter.
		cfg.SampleRatio = 0
		shutdown, err := SetupOTel(context.Background(), cfg, "v1.2.3")
		if err != nil {
			t.Fatalf("insecure=%v: %v", insecure, err)
		}
		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("insecure=%v: provider not installed", insecure)
		}

		ctx, span := otel.Tracer("test").Start(context.Background(), "chart.compute")
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		span.End()
		if !strings.HasPrefix(carrier.Get("traceparent"), "00-") {
			t.Fatalf("insecure=%v: traceparent = %q", insecure, carrier.Get("traceparent"))
		}
		_ = shutdown(context.Background())
	}
}

func TestSetupOTel_FailuresLeaveGlobals(t *testing.T) {
	keepGlobals(t)
	origDial, origRes := dialTraceExporter, buildResource
	t.Cleanup(func() { dialTraceExporter, buildResource = origDial, origRes })

	cases := []struct {
		name  string
		patch func()
	}{
		{"exporter", func() {
			dialTraceExporter = func(context.Context, ...otlptracegrpc.Option) (*otlptrace.Exporter, error) {
				return nil, errors.New("dial failed")
			}
		}},
		{"resource", func() {
			buildResource = func(context.Context, string, string) (*resource.Resource, error) {
				return nil, errors.New("bad resource")
			}
		}},
	}
	for _, tc := range cases {
		dialTraceExporter, buildResource = origDial, origRes
		tc.patch()
		tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
		if _, err := SetupOTel(context.Background(), enabled("svc"), "v0"); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if otel.GetTracerProvider() != tp || otel.GetTextMapPropagator() != prop {
			t.Fatalf("%s: globals changed on failure", tc.name)
		}
	}
}

func TestSampler_Bounds(t *testing.T) {
	cases := map[float64]string{1: "AlwaysOnSampler", 2: "AlwaysOnSampler", 0: "AlwaysOffSampler", -1: "AlwaysOffSampler", 0.25: "TraceIDRatioBased"}
	for ratio, want := range cases {
		if got := sampler(ratio).Description(); !strings.Contains(got, "root:"+want) {
			t.Errorf("sampler(%v) = %q; want root %s", ratio, got, want)
		}
	}
}

func TestServiceResource_Attributes(t *testing.T) {
	res, err := serviceResource(context.Background(), "astro-chart-backend", "v9")
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	want := map[attribute.Key]string{
		"service.name":    "astro-chart-backend",
		"service.version": "v9",
	}
	for _, kv := range res.Attributes() {
		if v, ok := want[kv.Key]; ok {
			if kv.Value.AsString() != v {
				t.Errorf("%s = %q; want %q", kv.Key, kv.Value.AsString(), v)
			}
			delete(want, kv.Key)
		}
	}
	if len(want) != 0 {
		t.Fatalf("missing attributes: %v", want)
	}
}
