package tickernlp

import "testing"

func universe() map[string]string {
	return map[string]string{
		"005930": "Samsung Electronics",
		"000660": "SK Hynix",
		"035420": "NAVER",
	}
}

func TestExtractFindsOtherTickerMentions(t *testing.T) {
	e := New(universe(), nil)
	mentions := e.Extract("Samsung Electronics faces new competition from SK Hynix in memory chips", "035420")

	if len(mentions) != 2 {
		t.Fatalf("expected 2 mentions, got %d: %+v", len(mentions), mentions)
	}
}

func TestExtractExcludesSelf(t *testing.T) {
	e := New(universe(), nil)
	mentions := e.Extract("Samsung Electronics posts record profit", "005930")
	if len(mentions) != 0 {
		t.Fatalf("expected no self-mentions, got %+v", mentions)
	}
}

func TestExtractNoMatches(t *testing.T) {
	e := New(universe(), nil)
	mentions := e.Extract("Oil prices rise on supply concerns", "005930")
	if len(mentions) != 0 {
		t.Fatalf("expected no mentions, got %+v", mentions)
	}
}

func TestExtractUsesAliases(t *testing.T) {
	aliases := map[string][]string{"005930": {"삼성전자"}}
	e := New(universe(), aliases)
	mentions := e.Extract("삼성전자, 반도체 시장 점유율 확대", "000660")
	if len(mentions) != 1 || mentions[0].StockCode != "005930" {
		t.Fatalf("expected alias match for 005930, got %+v", mentions)
	}
}
