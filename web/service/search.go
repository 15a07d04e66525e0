package service

import (
	"sort"
	"strings"

	"github.com/cardtracker/cardtracker/database"
	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/web/entity"

	"github.com/sahilm/fuzzy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const searchLimit = 100

// tsqueryReplacer strips characters with a meaning in to_tsquery syntax.
var tsqueryReplacer = strings.NewReplacer(
	":", "", "&", "", "|", "", "!", "",
	"(", "", ")", "", "<", "", ">", "",
	"'", "", `\`, "",
)

func searchTokens(q string) []string {
	tokens := make([]string, 0)
	for _, f := range strings.Fields(q) {
		if t := tsqueryReplacer.Replace(f); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// BuildTSQuery turns free text into a prefix-matching tsquery where every
// term must match: "char hol" becomes "char:* & hol:*". An empty result
// means there is no usable text.
func BuildTSQuery(q string) string {
	tokens := searchTokens(q)
	for i, t := range tokens {
		tokens[i] = t + ":*"
	}
	return strings.Join(tokens, " & ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Search returns at most 100 of userId's cards matching the text and facets
// in q. With text the best matches come first, otherwise the newest.
func (s *CardService) Search(userId int, q entity.SearchQuery) ([]model.CardView, error) {
	return search(database.GetDB(), userId, q)
}

func search(db *gorm.DB, userId int, q entity.SearchQuery) ([]model.CardView, error) {
	query := cardViewQuery(db, userId)

	if q.Series > 0 {
		query = query.Where("s.series_id = ?", q.Series)
	}
	if q.Set > 0 {
		query = query.Where("c.set_id = ?", q.Set)
	}
	if q.Type > 0 {
		query = query.Where("c.type_id = ?", q.Type)
	}
	if q.Rarity != "" {
		query = query.Where("c.rarity = ?", q.Rarity)
	}

	text := strings.TrimSpace(q.Q)
	if text == "" {
		return scanViews(query.Order("c.created_at DESC, c.id DESC").Limit(searchLimit))
	}
	if db.Dialector.Name() == "postgres" {
		return searchPostgres(query, text)
	}
	return searchFallback(query, text)
}

func searchPostgres(query *gorm.DB, text string) ([]model.CardView, error) {
	tsq := BuildTSQuery(text)
	if tsq == "" {
		query = query.Where("c.name ILIKE ?", likePattern(text))
		return scanViews(query.Order("c.created_at DESC, c.id DESC").Limit(searchLimit))
	}

	query = query.
		Where("(c.document_with_weights @@ to_tsquery('english', ?) OR c.name ILIKE ?)", tsq, likePattern(text)).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "ts_rank(c.document_with_weights, to_tsquery('english', ?)) DESC, c.created_at DESC, c.id DESC",
			Vars:               []any{tsq},
			WithoutParentheses: true,
		}})
	return scanViews(query.Limit(searchLimit))
}

// searchFallback is used on databases without full-text search. Rows whose
// name contains the text or any token are ranked by fuzzy score in Go.
func searchFallback(query *gorm.DB, text string) ([]model.CardView, error) {
	tokens := searchTokens(text)
	cond := "c.name LIKE ? ESCAPE '\\'"
	args := []any{likePattern(text)}
	for _, t := range tokens {
		cond += " OR c.name LIKE ? ESCAPE '\\'"
		args = append(args, likePattern(t))
	}

	views, err := scanViews(query.Where("("+cond+")", args...).Order("c.created_at DESC, c.id DESC"))
	if err != nil {
		return nil, err
	}
	rankByName(views, tokens)
	if len(views) > searchLimit {
		views = views[:searchLimit]
	}
	return views, nil
}

type viewNames []model.CardView

func (v viewNames) String(i int) string { return v[i].Name }
func (v viewNames) Len() int            { return len(v) }

// rankByName stably sorts views by how many tokens fuzzily match the name,
// then by total score. Unmatched rows keep their order at the end.
func rankByName(views []model.CardView, tokens []string) {
	if len(views) < 2 || len(tokens) == 0 {
		return
	}
	hits := make([]int, len(views))
	score := make([]int, len(views))
	for _, t := range tokens {
		for _, m := range fuzzy.FindFrom(t, viewNames(views)) {
			hits[m.Index]++
			score[m.Index] += m.Score
		}
	}

	idx := make([]int, len(views))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if hits[ia] != hits[ib] {
			return hits[ia] > hits[ib]
		}
		return score[ia] > score[ib]
	})

	sorted := make([]model.CardView, len(views))
	for i, j := range idx {
		sorted[i] = views[j]
	}
	copy(views, sorted)
}

func scanViews(query *gorm.DB) ([]model.CardView, error) {
	views := make([]model.CardView, 0)
	err := query.Scan(&views).Error
	return views, err
}
