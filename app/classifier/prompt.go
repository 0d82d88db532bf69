package classifier

import (
	"strings"

	"github.com/lysyi3m/news-comb/app/config"
)

const (
	promptInstruction = "Определи самую подходящую тематику текста из списка и выведи только ее без других символов: "
	blockSeparator    = "\n\n"
)

// BuildPrompt renders the few-shot classification prompt: the instruction with
// the topic list, one block per exemplar and the text to classify.
func BuildPrompt(topics *config.TopicConfig, text string) string {
	blocks := make([]string, 0, len(topics.Examples)+2)
	blocks = append(blocks, promptInstruction+strings.Join(topics.Topics, ", "))

	for _, example := range topics.Examples {
		blocks = append(blocks, "Текст: "+example.Text+"\nТема: "+example.Category)
	}

	blocks = append(blocks, "Текст: "+text+"\nТема:")

	return strings.Join(blocks, blockSeparator)
}
