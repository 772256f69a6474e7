// Package rerank reorders lexical candidates with a generative model: it
// builds an index-labelled ranking prompt, parses the indices back out of
// free text and writes the new order as a run.
package rerank

import (
	"fmt"
	"strings"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
)

// Template describes how a ranking prompt is assembled.
type Template struct {
	Name string
	// Header opens the prompt; it is followed by the query and documents.
	Header string
	// Instruction closes the prompt.
	Instruction string
	// Truncate is the per-document budget in characters (runes).
	Truncate int
}

const rankingInstruction = "\nOutput ONLY the ranking as a list of numbers: [1] > [2]\nRanking:"

const fewShotExamples = `
--- EXAMPLE 1 ---
Query: "Hırsızlık suçunun cezası nedir?"

Documents:
[1] "TCK Madde 141: Zilyedinin rızası olmadan başkasına ait taşınır bir malı..." (Relevant Law)
[2] "Borçlar Kanunu Madde 1: Sözleşme, tarafların iradelerini..." (Irrelevant)
[3] "TCK Madde 142: Nitelikli hırsızlık halleri şunlardır..." (Highly Relevant)

Ranking: [1] > [3] > [2]
-------------------------------------------------------------
--- EXAMPLE 2 ---
Query: "İşçi yıllık ücretli izne ne zaman hak kazanır?"

Documents:
[1] İşveren, işyerinde iş sağlığı ve güvenliği önlemlerini almakla yükümlüdür.
[2] İşçilere verilecek yıllık ücretli izin süresi, hizmet süresi bir yıldan beş yıla kadar olanlara on dört günden az olamaz.
[3] İşyerinde işe başladığı günden itibaren, deneme süresi de içinde olmak üzere, en az bir yıl çalışmış olan işçilere yıllık ücretli izin verilir.

Ranking: [3] > [2] > [1]
-----------------
`

// ZeroShot is the plain instruction prompt.
func ZeroShot() Template {
	return Template{
		Name:        config.ModeZeroShot,
		Header:      "You are an expert Turkish lawyer.\nRank these documents by relevance to the query.\n",
		Instruction: rankingInstruction,
		Truncate:    1000,
	}
}

// FewShot prefixes two worked ranking examples.
func FewShot() Template {
	return Template{
		Name: config.ModeFewShot,
		Header: "You are an expert Turkish Lawyer and Judge.\n" +
			"Your task is to rank the provided documents based on their relevance to the user query.\n" +
			"Use the logical reasoning of a legal expert.\n\n" +
			fewShotExamples +
			"\nNOW IT IS YOUR TURN:\n",
		Instruction: "\nOutput ONLY the ranking as a list of numbers: [1] > [2] ...\nRanking:",
		Truncate:    500,
	}
}

// TemplateFor returns the preset for a mode name.
func TemplateFor(mode string) (Template, error) {
	switch config.NormalizeMode(mode) {
	case config.ModeZeroShot:
		return ZeroShot(), nil
	case config.ModeFewShot:
		return FewShot(), nil
	}
	return Template{}, fmt.Errorf("unknown rerank mode %q", mode)
}

// Passage is a candidate document shown to the model.
type Passage struct {
	ID   string
	Text string
}

// IndexMap maps the 1-based prompt label back to the candidate position.
type IndexMap struct {
	ids []string
}

// Len returns the number of labelled candidates.
func (m IndexMap) Len() int {
	return len(m.ids)
}

// DocID returns the document id behind label i.
func (m IndexMap) DocID(i int) (string, bool) {
	if i < 1 || i > len(m.ids) {
		return "", false
	}
	return m.ids[i-1], true
}

// BuildPrompt renders the prompt for a query. Documents are labelled
// [1]..[K] in candidate order, never by id.
func (t Template) BuildPrompt(query string, passages []Passage) (string, IndexMap) {
	var sb strings.Builder

	sb.WriteString(t.Header)
	sb.WriteString("Query: ")
	sb.WriteString(query)
	sb.WriteString("\n\nDocuments:\n")

	ids := make([]string, len(passages))
	for i, p := range passages {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i+1, truncate(p.Text, t.Truncate))
		ids[i] = p.ID
	}

	sb.WriteString(t.Instruction)

	return sb.String(), IndexMap{ids: ids}
}

// truncate keeps the first n runes of s. n <= 0 keeps everything.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
