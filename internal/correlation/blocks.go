package correlation

import (
	"sort"

	"leetlens/pkg/contracts/domain"
)

// Block names, also used as component keys in results.
const (
	BlockTopics     = "topics"
	BlockDifficulty = "difficulty"
	BlockAcceptance = "acceptance"
	BlockFeedback   = "feedback"
)

// Block is one named group of numeric feature columns describing companies
// along a single signal dimension. Rows are aligned with the engine's
// company ordering.
type Block struct {
	Name    string
	Weight  float64
	Columns []string
	Data    [][]float64
}

// ScaleByMax divides each column by its maximum across companies. An
// all-zero column is left at zero rather than divided.
func (b *Block) ScaleByMax() {
	for col := range b.Columns {
		max := 0.0
		for row := range b.Data {
			if v := b.Data[row][col]; v > max {
				max = v
			}
		}
		if max == 0 {
			continue
		}
		for row := range b.Data {
			b.Data[row][col] /= max
		}
	}
}

// DropZeroVariance removes columns that take the same value for every
// company; they carry no discriminative signal.
func (b *Block) DropZeroVariance() {
	if len(b.Data) == 0 {
		return
	}
	keep := make([]int, 0, len(b.Columns))
	for col := range b.Columns {
		first := b.Data[0][col]
		for row := 1; row < len(b.Data); row++ {
			if b.Data[row][col] != first {
				keep = append(keep, col)
				break
			}
		}
	}

	columns := make([]string, len(keep))
	for i, col := range keep {
		columns[i] = b.Columns[col]
	}
	data := make([][]float64, len(b.Data))
	for row := range b.Data {
		data[row] = make([]float64, len(keep))
		for i, col := range keep {
			data[row][i] = b.Data[row][col]
		}
	}
	b.Columns = columns
	b.Data = data
}

// Empty reports whether the block has no columns left.
func (b *Block) Empty() bool {
	return len(b.Columns) == 0
}

// buildTopicBlock profiles each company over the selected topic dimensions.
// The globally most- and least-frequent topics are trimmed from the ranking
// before the top topics become feature columns; each cell is the fraction of
// the company's own topic mentions falling into that topic.
func buildTopicBlock(ds *domain.UnifiedDataset, companies []string, indexes map[string][]int, cfg Config) *Block {
	globalCounts := make(map[string]int)
	for i := range ds.Records {
		for _, topic := range ds.Records[i].Topics {
			globalCounts[topic]++
		}
	}

	type topicCount struct {
		topic string
		count int
	}
	ranked := make([]topicCount, 0, len(globalCounts))
	for topic, count := range globalCounts {
		ranked = append(ranked, topicCount{topic, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].topic < ranked[j].topic
	})

	// Trim both ends of the global ranking only when enough topics remain.
	if len(ranked) > cfg.TopicTrimHead+cfg.TopicTrimTail {
		ranked = ranked[cfg.TopicTrimHead : len(ranked)-cfg.TopicTrimTail]
	}
	if len(ranked) > cfg.TopTopics {
		ranked = ranked[:cfg.TopTopics]
	}

	columns := make([]string, len(ranked))
	columnIdx := make(map[string]int, len(ranked))
	for i, tc := range ranked {
		columns[i] = tc.topic
		columnIdx[tc.topic] = i
	}

	block := &Block{Name: BlockTopics, Weight: cfg.TopicWeight, Columns: columns}
	for _, company := range companies {
		row := make([]float64, len(columns))
		totalMentions := 0
		for _, idx := range indexes[company] {
			totalMentions += len(ds.Records[idx].Topics)
		}
		if totalMentions > 0 {
			for _, idx := range indexes[company] {
				for _, topic := range ds.Records[idx].Topics {
					if col, ok := columnIdx[topic]; ok {
						row[col] += 1 / float64(totalMentions)
					}
				}
			}
		}
		block.Data = append(block.Data, row)
	}
	return block
}

// buildDifficultyBlock computes each company's share of records per
// difficulty bucket.
func buildDifficultyBlock(ds *domain.UnifiedDataset, companies []string, indexes map[string][]int, cfg Config) *Block {
	difficulties := domain.Difficulties()
	columns := make([]string, len(difficulties))
	for i, d := range difficulties {
		columns[i] = string(d)
	}

	block := &Block{Name: BlockDifficulty, Weight: cfg.DifficultyWeight, Columns: columns}
	for _, company := range companies {
		row := make([]float64, len(columns))
		total := len(indexes[company])
		if total > 0 {
			for _, idx := range indexes[company] {
				for i, d := range difficulties {
					if ds.Records[idx].Difficulty == d {
						row[i] += 1 / float64(total)
					}
				}
			}
		}
		block.Data = append(block.Data, row)
	}
	return block
}

// buildAcceptanceBlock computes the mean acceptance rate per company,
// rescaled by 100 when the values are detected to be on a 0-100 scale.
func buildAcceptanceBlock(ds *domain.UnifiedDataset, companies []string, indexes map[string][]int, cfg Config) *Block {
	block := &Block{Name: BlockAcceptance, Weight: cfg.AcceptanceWeight, Columns: []string{"mean_acceptance"}}

	values := make([]float64, len(companies))
	percentScale := false
	for i, company := range companies {
		sum, count := 0.0, 0
		for _, idx := range indexes[company] {
			if rate := ds.Records[idx].AcceptanceRate; rate != nil {
				sum += *rate
				count++
			}
		}
		if count > 0 {
			values[i] = sum / float64(count)
		}
		if values[i] > 1.5 {
			percentScale = true
		}
	}
	if percentScale {
		for i := range values {
			values[i] /= 100
		}
	}

	for _, v := range values {
		block.Data = append(block.Data, []float64{v})
	}
	return block
}

// buildFeedbackBlock averages per-problem engagement ratios per company:
// like ratio, likes per problem, votes per problem and mean frequency. The
// like columns only carry signal when external metadata was joined.
func buildFeedbackBlock(ds *domain.UnifiedDataset, companies []string, indexes map[string][]int, cfg Config) *Block {
	block := &Block{
		Name:    BlockFeedback,
		Weight:  cfg.FeedbackWeight,
		Columns: []string{"like_ratio", "likes_per_problem", "votes_per_problem", "mean_frequency"},
	}

	for _, company := range companies {
		var likeRatioSum, likesSum, votesSum, freqSum float64
		votedCount := 0
		total := len(indexes[company])

		for _, idx := range indexes[company] {
			r := &ds.Records[idx]
			freqSum += r.Frequency
			if r.Likes == nil {
				continue
			}
			likes := *r.Likes
			dislikes := 0.0
			if r.Dislikes != nil {
				dislikes = *r.Dislikes
			}
			if likes+dislikes > 0 {
				likeRatioSum += likes / (likes + dislikes)
			}
			likesSum += likes
			votesSum += likes + dislikes
			votedCount++
		}

		row := make([]float64, 4)
		if votedCount > 0 {
			row[0] = likeRatioSum / float64(votedCount)
			row[1] = likesSum / float64(votedCount)
			row[2] = votesSum / float64(votedCount)
		}
		if total > 0 {
			row[3] = freqSum / float64(total)
		}
		block.Data = append(block.Data, row)
	}
	return block
}
