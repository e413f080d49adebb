package decompose

import (
	"fmt"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

const promptTemplate = `You are a helpful assistant that splits a complex user query into multiple simpler sub-queries.
Only split the query if it contains multiple distinct questions or requests.
Don't split into more than %d sub-queries.

Return your result as a JSON array of strings.
Do not include explanations or formatting.

Example 1:
Input: "What is LangGraph?"
Output: ["What is LangGraph?"]

Example 2:
Input: "Tell me the revenue, total workers, culture and location of company X"
Output: ["Tell me the revenue of company X", "Tell me the total workers of company X", "Tell me the culture of company X", "Tell me the location of company X"]

Now, split this query:
"%s"`

func decomposePrompt(q domain.Query, maxSubQueries int) string {
	return fmt.Sprintf(promptTemplate, maxSubQueries, string(q))
}
