package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewsAPIProviderFetch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q":      q.Get("q"),
			"from":   q.Get("from"),
			"sortBy": q.Get("sortBy"),
			"apiKey": q.Get("apiKey"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"totalResults": 3,
			"articles": [
				{"source":{"id":null,"name":"G1"},"author":"Ana","title":"Governo anuncia","description":"d","url":"https://g1/1","urlToImage":"","publishedAt":"2025-03-01T10:00:00Z","content":"c"},
				{"source":{"name":"Folha"},"author":"Bia","title":"Outra","description":"d","url":"https://f/2","urlToImage":"i","publishedAt":"not a date","content":"c"},
				{"source":"broken","title":123}
			]
		}`))
	}))
	defer srv.Close()

	p := NewNewsAPIProvider("secret", srv.URL, time.Second)
	from := time.Date(2025, 2, 22, 15, 30, 0, 0, time.UTC)

	articles, err := p.FetchArticles(context.Background(), Query{Topic: "governo", From: from})
	if err != nil {
		t.Fatalf("FetchArticles() error = %v", err)
	}

	want := map[string]string{"q": "governo", "from": "2025-02-22", "sortBy": "publishedAt", "apiKey": "secret"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if len(articles) != 3 {
		t.Fatalf("articles = %d, want 3 (undecodable kept as empty)", len(articles))
	}
	if articles[0].Title == nil || *articles[0].Title != "Governo anuncia" {
		t.Errorf("first article not decoded: %+v", articles[0])
	}
	if articles[1].Title != nil || articles[2].Title != nil {
		t.Error("undecodable articles should be returned empty")
	}
}

func TestNewsAPIProviderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"error","code":"apiKeyInvalid"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewNewsAPIProvider("bad", srv.URL, time.Second)
	if _, err := p.FetchArticles(context.Background(), Query{Topic: "governo", From: time.Now()}); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Agência</title>
  <link>https://agencia.example</link>
  <item>
    <title>Governo aprova reforma</title>
    <link>https://agencia.example/1</link>
    <description>Texto sobre o governo</description>
    <author>redacao@agencia.example (Redação)</author>
    <pubDate>Sat, 01 Mar 2025 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Futebol</title>
    <link>https://agencia.example/2</link>
    <description>Nada de política</description>
    <pubDate>Sat, 01 Mar 2025 11:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Governo antigo</title>
    <link>https://agencia.example/3</link>
    <description>velho</description>
    <pubDate>Sat, 01 Feb 2025 11:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

func TestRSSProviderFiltersByTopicAndDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	p := NewRSSProvider([]string{srv.URL}, time.Second)
	from := time.Date(2025, 2, 22, 0, 0, 0, 0, time.UTC)

	articles, err := p.FetchArticles(context.Background(), Query{Topic: "governo", From: from})
	if err != nil {
		t.Fatalf("FetchArticles() error = %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("articles = %d, want 1", len(articles))
	}

	a := articles[0]
	if *a.Title != "Governo aprova reforma" || *a.Source.Name != "Agência" || a.PublishedAt == nil {
		t.Errorf("unexpected article %+v", a)
	}
}

func TestRSSProviderAllFeedsFail(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	p := NewRSSProvider([]string{srv.URL}, time.Second)
	if _, err := p.FetchArticles(context.Background(), Query{From: time.Now()}); err == nil {
		t.Fatal("expected error when every feed fails")
	}
}

func TestReaderExtractsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Reforma</title></head><body>
			<nav>menu menu menu</nav>
			<article><h1>Reforma aprovada</h1>
			<p>O Congresso aprovou nesta terça-feira a reforma tributária após meses de negociação entre os partidos da base e da oposição.</p>
			<p>O texto segue agora para sanção presidencial e deve entrar em vigor no próximo ano, segundo o relator do projeto.</p>
			</article></body></html>`))
	}))
	defer srv.Close()

	text, err := NewReader(time.Second, 40).Text(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if n := len([]rune(text)); n == 0 || n > 40 {
		t.Errorf("text length = %d, want 1..40", n)
	}

	if _, err := NewReader(time.Second, 0).Text(context.Background(), "not-a-url"); err == nil {
		t.Error("expected error for invalid url")
	}
}
