package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/category"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/generator"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/srs"
)

const systemPrompt = "Jesteś ekspertem w nauczaniu języka angielskiego. Odpowiadaj tylko w formacie JSON."

const generatePrompt = `Jesteś leksykografem. Zwróć TYLKO JSON (tablica obiektów), bez dodatkowych komentarzy.

KONTEKST:
- Temat: %s
- Poziom: %s (CEFR)
- Unikaj słów już użytych: %s

ZADANIE:
- Wygeneruj %d haseł PL→EN, ściśle związanych z tematem i dopasowanych do poziomu.

FORMAT (dokładnie):
[
  {
    "polish": "…",
    "english": "…",
    "verified": true|false,
    "sources": [{ "name": "…", "url": "…" }],
    "examples": [{ "text": "…dokładny cytat…", "source": "…", "url": "…", "exactQuote": true }]
  }
]

ZASADY:
- verified=true TYLKO jeśli znaczenie potwierdzają co najmniej 2 wiarygodne słowniki. Nie wymyślaj linków.
- Jeśli nie możesz zweryfikować: verified=false, sources=[], examples=[].

GUARDY PRZECIW BŁĘDOM:
1) Nie zwracaj english == polish chyba że to oczywisty internacjonalizm (np. "hotel", "internet", "radio").
2) "parapet" (PL, okienny) → "windowsill" lub "window ledge".
3) "skosy" (poddasze) → "sloped ceilings" lub "pitched ceilings".
`

const advicePrompt = `Jako ekspert w spaced repetition, określ optymalny interwał powtórki dla słowa.

DANE SŁOWA:
- Słowo: %s -> %s
- Próby: %d
- Poprawne: %d
- Status: %s
- Trudność: %s
- Ostatnia odpowiedź: %s

KONTEKST UŻYTKOWNIKA:
- Tempo nauki: %s
- Średnia dokładność: %d%%

Zwróć tylko liczbę dni (1-30) jako interwał do następnej powtórki:`

const categoryPrompt = `Jako ekspert w nauczaniu języka angielskiego, zaproponuj JEDNĄ nową kategorię słownictwa dla polskiego ucznia na poziomie %s.

KONTEKST:
- Istniejące kategorie: %s
- Słabe obszary użytkownika: %s
- Poziom: %s

WYMAGANIA:
1. Kategoria powinna być praktyczna i użyteczna
2. Nie może duplikować istniejących kategorii
3. Powinna być odpowiednia dla poziomu %s
4. Zwróć TYLKO nazwę kategorii po polsku (jedno słowo lub krótką frazę)

Odpowiedź (tylko nazwa kategorii):`

const selfCheckPrompt = `You are a bilingual lexicographer. Validate that each English word truly matches the Polish meaning (same sense). Return JSON array with items: {polish, english, fixedEnglish, verdict}. Rules:
- verdict = "ok" if match is semantically correct;
- verdict = "fix" if the English term is wrong, too broad or of a wrong sense; then provide fixedEnglish with the best single-word or short multi-word alternative that matches the Polish meaning used in everyday language.
- If multiple senses exist, pick the sense that corresponds to the Polish term. Avoid paraphrases unless necessary.

DATA:
%s

Return ONLY JSON array.`

func buildGeneratePrompt(req generator.Request) string {
	return fmt.Sprintf(generatePrompt, req.Category, req.Level, strings.Join(req.Avoid, ", "), req.Count)
}

func buildAdvicePrompt(req srs.AdviceRequest) string {
	e := req.Entry
	difficulty := string(e.Difficulty)
	if difficulty == "" {
		difficulty = "medium"
	}
	answer := "błędna"
	if req.Correct {
		answer = "poprawna"
	}
	return fmt.Sprintf(advicePrompt,
		e.SourceText, e.TargetText, e.Attempts, e.CorrectCount, e.Status, difficulty, answer,
		req.LearningSpeed, req.AverageAccuracy)
}

func buildCategoryPrompt(req category.MintRequest) string {
	weak := "brak danych"
	if len(req.WeakAreas) > 0 {
		weak = strings.Join(req.WeakAreas, ", ")
	}
	return fmt.Sprintf(categoryPrompt, req.Level, strings.Join(req.Existing, ", "), weak, req.Level, req.Level)
}

type checkItem struct {
	Polish  string `json:"polish"`
	English string `json:"english"`
}

func buildSelfCheckPrompt(pairs []generator.Pair) (string, error) {
	items := make([]checkItem, 0, len(pairs))
	for _, p := range pairs {
		items = append(items, checkItem{Polish: p.Source, English: p.Target})
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal pairs: %w", err)
	}
	return fmt.Sprintf(selfCheckPrompt, data), nil
}
