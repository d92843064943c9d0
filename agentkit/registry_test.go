// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"studyflow/agentkit"
)

func namedUnit(name string) *agentkit.FuncCapability {
	return agentkit.NewRawCapability(name, "Does "+name+".", agentkit.KindDirect, nil,
		func(ctx context.Context, args json.RawMessage, turn *agentkit.Turn) agentkit.Result {
			return agentkit.Successf(name, "ok")
		},
	)
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := agentkit.NewRegistry()
	if err := r.Register(namedUnit("alpha")); err != nil {
		t.Fatalf("register: %v", err)
	}

	unit, ok := r.Resolve("alpha")
	if !ok {
		t.Fatal("alpha not resolvable")
	}
	if unit.Name() != "alpha" {
		t.Errorf("Name = %q", unit.Name())
	}

	if _, ok := r.Resolve("beta"); ok {
		t.Error("beta should not resolve")
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := agentkit.NewRegistry()
	if err := r.Register(namedUnit("alpha")); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Register(namedUnit("alpha"))
	if !errors.Is(err, agentkit.ErrDuplicateCapability) {
		t.Errorf("err = %v, want ErrDuplicateCapability", err)
	}
}

func TestRegistry_RejectsEmptyDescription(t *testing.T) {
	r := agentkit.NewRegistry()
	unit := agentkit.NewRawCapability("bare", "", agentkit.KindDirect, nil,
		func(ctx context.Context, args json.RawMessage, turn *agentkit.Turn) agentkit.Result {
			return agentkit.Successf("bare", "ok")
		},
	)
	if err := r.Register(unit); err == nil {
		t.Error("expected rejection: description is the routing signal and must not be empty")
	}
}

func TestRegistry_DescriptorsPreserveOrderAndExclude(t *testing.T) {
	r := agentkit.NewRegistry()
	r.MustRegister(namedUnit("one"), namedUnit("two"), namedUnit("three"))

	all := r.Descriptors()
	if len(all) != 3 {
		t.Fatalf("descriptors = %d", len(all))
	}
	for i, want := range []string{"one", "two", "three"} {
		if all[i].Name != want {
			t.Errorf("descriptor[%d] = %q, want %q", i, all[i].Name, want)
		}
	}

	filtered := r.Descriptors("two")
	if len(filtered) != 2 {
		t.Fatalf("filtered = %d", len(filtered))
	}
	for _, d := range filtered {
		if d.Name == "two" {
			t.Error("excluded capability still advertised")
		}
	}
}
