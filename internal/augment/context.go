package augment

import (
	"strings"

	"github.com/iYEiD/ds-midterm/internal/retrieval"
)

// BuildContext assembles the prompt context from ranked candidates under a
// character budget. Candidates are added highest score first; once the budget
// would be exceeded the remaining, lower-scored candidates are dropped. The
// returned slice holds exactly the candidates included in the context, in
// rank order.
func BuildContext(candidates []retrieval.Candidate, budget int) (string, []retrieval.Candidate) {
	var sb strings.Builder
	var included []retrieval.Candidate

	for _, c := range candidates {
		block := c.Summary + "\n\n"
		if sb.Len()+len(block) > budget {
			break
		}
		sb.WriteString(block)
		included = append(included, c)
	}
	return strings.TrimRight(sb.String(), "\n"), included
}
