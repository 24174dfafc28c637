package prompt

import (
	"reflect"
	"testing"
)

func TestResolveTemplateVariants(t *testing.T) {
	cases := []struct {
		module  Module
		variant Variant
	}{
		{ModuleGeniea1Pro, VariantStandard},
		{ModuleGeniea1Flash, VariantStandard},
		{ModuleGenieaNano1o, VariantStandard},
		{ModuleGenieaSuper13o, VariantStandard},
		{ModuleImagine1Suno, VariantStandard},
		{ModuleImagine1Pro, VariantStandard},
		{ModuleDeepThink, VariantDeepReasoning},
		{ModulePlayBox, VariantFiction},
	}
	for _, tc := range cases {
		if got := ResolveTemplate(tc.module).Variant; got != tc.variant {
			t.Errorf("ResolveTemplate(%q).Variant = %v, want %v", tc.module, got, tc.variant)
		}
	}
}

func TestResolveTemplateUnknownFallsBackToStandard(t *testing.T) {
	unknown := ResolveTemplate(Module("unknown-module"))
	standard := ResolveTemplate(ModuleGeniea1Pro)
	if !reflect.DeepEqual(unknown, standard) {
		t.Error("unknown module must resolve to the standard template")
	}
}

func TestResolveTemplateIdempotent(t *testing.T) {
	for _, m := range []Module{ModuleGeniea1Pro, ModuleDeepThink, ModulePlayBox, Module("whatever")} {
		first := ResolveTemplate(m)
		second := ResolveTemplate(m)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("ResolveTemplate(%q) is not deterministic", m)
		}
	}
}
