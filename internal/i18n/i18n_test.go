package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "Lumira" {
		t.Errorf("T(AppTitle) = %q, want 'Lumira'", got)
	}

	got = T(ctx, "NoTestToGrade")
	if got != "There is no test to check!" {
		t.Errorf("T(NoTestToGrade) = %q", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "AppTitle")
	if got != "Люмира" {
		t.Errorf("T(AppTitle) = %q, want 'Люмира'", got)
	}

	got = T(ctx, "NoTestToGrade")
	if got != "Нет теста для проверки!" {
		t.Errorf("T(NoTestToGrade) = %q", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "ProgressHeader", 1); got != "Test history (1 test):" {
		t.Errorf("Tp(ProgressHeader, 1) = %q", got)
	}
	if got := Tp(ctx, "ProgressHeader", 5); got != "Test history (5 tests):" {
		t.Errorf("Tp(ProgressHeader, 5) = %q", got)
	}

	ctx = initLang(t, "ru")
	if got := Tp(ctx, "ProgressHeader", 5); got != "История тестов (5 тестов):" {
		t.Errorf("Tp(ProgressHeader, 5) ru = %q", got)
	}
	if got := Tp(ctx, "ProgressHeader", 3); got != "История тестов (3 теста):" {
		t.Errorf("Tp(ProgressHeader, 3) ru = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "GradeHeader", map[string]any{"Score": 2, "Total": 3})
	if got != "Result: 2/3" {
		t.Errorf("Td(GradeHeader) = %q, want 'Result: 2/3'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestFallbackWithoutLocalizer(t *testing.T) {
	initLang(t, "ru")

	got := T(context.Background(), "Goodbye")
	if got != "Bye-bye" {
		t.Errorf("T(Goodbye) = %q", got)
	}
	got = T(context.Background(), "NoTestToGrade")
	if got != "Нет теста для проверки!" {
		t.Errorf("default language should be ru, got %q", got)
	}
}

func TestMiddlewareAcceptLanguage(t *testing.T) {
	initLang(t, "ru")

	var got string
	h := Middleware("ru")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "NoTestToGrade")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "There is no test to check!" {
		t.Errorf("Accept-Language en: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Нет теста для проверки!" {
		t.Errorf("no Accept-Language: got %q", got)
	}
}
