package detect

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestVectorizerSelfSimilarity(t *testing.T) {
	v := FitVectorizer(defaultTemplates)

	vec, err := v.Vectorize("your account will be blocked")
	if err != nil {
		t.Fatalf("vectorize: %v", err)
	}

	var dot float64
	for _, x := range vec {
		dot += float64(x) * float64(x)
	}
	if math.Abs(dot-1.0) > 1e-5 {
		t.Errorf("self dot product = %.6f, want 1.0", dot)
	}
}

func TestVectorizerNoOverlap(t *testing.T) {
	v := FitVectorizer(defaultTemplates)

	_, err := v.Vectorize("zzz qqq xyzzy")
	if !errors.Is(err, ErrNoVocabularyOverlap) {
		t.Fatalf("err = %v, want ErrNoVocabularyOverlap", err)
	}
}

func TestVectorizerIgnoresStopwordsAndShortTokens(t *testing.T) {
	v := FitVectorizer([]string{"send money fast"})

	// Only stopwords and single characters: no overlap even though "the"
	// appears in normal English.
	if _, err := v.Vectorize("a the to x"); !errors.Is(err, ErrNoVocabularyOverlap) {
		t.Fatalf("err = %v, want ErrNoVocabularyOverlap", err)
	}

	vec, err := v.Vectorize("please send the money to me")
	if err != nil {
		t.Fatalf("vectorize: %v", err)
	}
	if len(vec) != v.Dimension() {
		t.Errorf("vector length %d, dimension %d", len(vec), v.Dimension())
	}
}

func TestVectorizerSmoothedIDF(t *testing.T) {
	// "money" in both docs, "lottery" in one. n=2:
	// idf(money) = ln(3/3)+1 = 1, idf(lottery) = ln(3/2)+1.
	v := FitVectorizer([]string{"send money", "lottery money"})

	iMoney, ok := v.vocab["money"]
	if !ok {
		t.Fatal("money missing from vocabulary")
	}
	iLottery, ok := v.vocab["lottery"]
	if !ok {
		t.Fatal("lottery missing from vocabulary")
	}

	if math.Abs(float64(v.idf[iMoney])-1.0) > 1e-6 {
		t.Errorf("idf(money) = %f, want 1.0", v.idf[iMoney])
	}
	want := math.Log(3.0/2.0) + 1
	if math.Abs(float64(v.idf[iLottery])-want) > 1e-6 {
		t.Errorf("idf(lottery) = %f, want %f", v.idf[iLottery], want)
	}
}

func TestSemanticIndexQuery(t *testing.T) {
	si, err := NewSemanticIndex(nil)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	ctx := context.Background()

	match, err := si.Query(ctx, "your account will be blocked")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match for template-identical text")
	}
	if match.Template != "your account will be blocked" {
		t.Errorf("matched %q", match.Template)
	}
	if match.Similarity < 0.99 {
		t.Errorf("similarity = %.4f, want ~1.0", match.Similarity)
	}

	// Out-of-vocabulary text scores zero against everything.
	match, err = si.Query(ctx, "zzz qqq nothing here overlaps")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if match != nil {
		t.Errorf("unexpected match for out-of-vocabulary text: %+v", match)
	}

	// Blank text is a no-op.
	match, err = si.Query(ctx, "   ")
	if err != nil || match != nil {
		t.Errorf("blank query: match=%v err=%v", match, err)
	}
}

func TestNormalizeTextFoldsFullwidth(t *testing.T) {
	got := NormalizeText("ＵＲＧＥＮＴ ９８７６５４３２１０")
	if got != "URGENT 9876543210" {
		t.Errorf("NormalizeText = %q", got)
	}
	// Already-normal text is returned unchanged.
	if NormalizeText("plain text") != "plain text" {
		t.Error("plain text changed by normalization")
	}
}
