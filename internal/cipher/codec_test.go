package cipher

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestEncodeDecodeHelloWorld(t *testing.T) {
	cfg, lookup := stack(t, 1, 32)

	enc, err := Encode("Hello World.", cfg, lookup)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if enc.Text == "Hello World." {
		t.Fatal("expected ciphertext to differ from plaintext")
	}
	if len(enc.Text) != len("Hello World.") {
		t.Fatalf("ciphertext length %d, want %d", len(enc.Text), len("Hello World."))
	}
	for _, r := range enc.Text {
		if !InAlphabet(r) {
			t.Fatalf("ciphertext contains %q outside the alphabet", r)
		}
	}
	if enc.CharactersProcessed != 12 {
		t.Errorf("characters processed = %d, want 12", enc.CharactersProcessed)
	}
	if enc.Direction != DirectionEncode {
		t.Errorf("direction = %q", enc.Direction)
	}

	dec, err := Decode(enc.Text, cfg, lookup)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Text != "Hello World." {
		t.Fatalf("Decode = %q, want %q", dec.Text, "Hello World.")
	}
	if !reflect.DeepEqual(dec.FinalPositions, enc.FinalPositions) {
		t.Fatalf("final positions differ: encode %v, decode %v", enc.FinalPositions, dec.FinalPositions)
	}
	if !reflect.DeepEqual(enc.Positions(), []int{1, 44}) {
		t.Errorf("final positions = %v, want [1 44]", enc.Positions())
	}
	if enc.FinalPositions[0].RotorID != cfg.RotorIDs[0] {
		t.Errorf("final positions not keyed by configured id")
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	cfg, lookup := stack(t, 5, 9, 60)
	text := strings.Repeat("Determinism matters. ", 20)

	first, err := Encode(text, cfg, lookup)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second, err := Encode(text, cfg, lookup)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if first.Text != second.Text || !reflect.DeepEqual(first.FinalPositions, second.FinalPositions) {
		t.Fatal("identical inputs produced different results")
	}

	moved := Configuration{RotorIDs: cfg.RotorIDs, Positions: []int{5, 9, 61}}
	third, err := Encode(text, moved, lookup)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if third.Text == first.Text {
		t.Fatal("different start positions produced the same ciphertext")
	}
}

func TestRoundTripAcrossStackSizes(t *testing.T) {
	texts := []string{
		"",
		"A",
		"...",
		strings.Repeat("abcdefghijklmnopqrstuvwxyz ", 10),
		strings.Repeat("The 9 lives of a cat. ", 200),
	}
	for _, n := range []int{1, 2, 3, 4, DefaultMaxActiveRotors} {
		positions := make([]int, n)
		for i := range positions {
			positions[i] = 1 + (i*23)%AlphabetSize
		}
		cfg, lookup := stack(t, positions...)

		for _, text := range texts {
			enc, err := Encode(text, cfg, lookup)
			if err != nil {
				t.Fatalf("%d rotors: Encode: %v", n, err)
			}
			dec, err := Decode(enc.Text, cfg, lookup)
			if err != nil {
				t.Fatalf("%d rotors: Decode: %v", n, err)
			}
			if dec.Text != text {
				t.Fatalf("%d rotors: round trip of %d chars failed", n, len(text))
			}
			if !reflect.DeepEqual(dec.FinalPositions, enc.FinalPositions) {
				t.Fatalf("%d rotors: final positions differ: %v vs %v", n, enc.Positions(), dec.Positions())
			}
		}
	}
}

func TestEmptyMessageKeepsStartPositions(t *testing.T) {
	cfg, lookup := stack(t, 12, 40)
	res, err := Encode("", cfg, lookup)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if res.Text != "" || res.CharactersProcessed != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !reflect.DeepEqual(res.Positions(), []int{12, 40}) {
		t.Fatalf("positions = %v, want start positions", res.Positions())
	}
}

func TestForeignCharactersPassThrough(t *testing.T) {
	cfg, lookup := stack(t, 1)

	enc, err := Encode("Hi!", cfg, lookup)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasSuffix(enc.Text, "!") {
		t.Fatalf("expected '!' copied unchanged, got %q", enc.Text)
	}
	if enc.CharactersProcessed != 3 {
		t.Errorf("characters processed = %d, want 3", enc.CharactersProcessed)
	}
	if len(enc.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", enc.Warnings)
	}
	w := enc.Warnings[0]
	if w.Index != 2 || w.Char != "!" || !strings.Contains(w.Message, "not in alphabet") {
		t.Errorf("unexpected warning %+v", w)
	}
	if !reflect.DeepEqual(enc.Positions(), []int{3}) {
		t.Errorf("pass-through stepped the rotor: positions %v", enc.Positions())
	}

	dec, err := Decode(enc.Text, cfg, lookup)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Text != "Hi!" {
		t.Fatalf("Decode = %q, want %q", dec.Text, "Hi!")
	}

	mixed := "Grüße, Welt!\n"
	enc, err = Encode(mixed, cfg, lookup)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec, err = Decode(enc.Text, cfg, lookup)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Text != mixed {
		t.Fatalf("Decode = %q, want %q", dec.Text, mixed)
	}
	if len(enc.Warnings) != 5 {
		t.Errorf("expected 5 warnings, got %d", len(enc.Warnings))
	}
}

func TestRunErrors(t *testing.T) {
	cfg, lookup := stack(t, 1, 1)
	e := NewEngine(WithMaxActiveRotors(1))
	if e.MaxActiveRotors() != 1 {
		t.Fatalf("MaxActiveRotors = %d", e.MaxActiveRotors())
	}

	res, err := e.Encode("abc", cfg, lookup)
	if !errors.Is(err, ErrTooManyRotors) || res != nil {
		t.Fatalf("expected ErrTooManyRotors and no result, got %v, %v", res, err)
	}

	if _, err := Decode("abc", Configuration{}, lookup); !errors.Is(err, ErrNoActiveRotors) {
		t.Fatalf("expected ErrNoActiveRotors, got %v", err)
	}
	if _, err := NewEngine().Run(Direction("sideways"), "abc", cfg, lookup); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}

func TestEngineLogsProcessedMessages(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg, lookup := stack(t, 1)

	e := NewEngine(WithLogger(logger))
	if _, err := e.Encode("Hello!", cfg, lookup); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"msg":"message processed"`, `"direction":"encode"`, `"characters":6`, `"warnings":1`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
	if strings.Contains(out, "Hello") {
		t.Errorf("log output leaked message text: %s", out)
	}
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	cfg, lookup := stack(t, 2, 30, 61)
	text := strings.Repeat("Concurrent callers share definitions only. ", 8)
	want, err := Encode(text, cfg, lookup)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Encode(text, cfg, lookup)
			if err != nil {
				errs <- err
				return
			}
			if got.Text != want.Text {
				errs <- errors.New("ciphertext differs under concurrency")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
