package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/rouge/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Text evaluation platforms score machine-generated candidates against
        human-written references using n-gram overlap. Each scoring job tokenizes both
        sides, extracts overlapping n-gram windows, and computes clipped precision and
        recall before collapsing multiple references with a max or average policy. This
        architecture enables sub-second scoring latency even with thousands of
        candidate/reference pairs submitted per minute.`,
	"long": strings.Repeat(`Automatic summarization metrics form the backbone of modern
        text evaluation infrastructure. These systems split candidate and reference
        text on whitespace, slide fixed-width windows across the token streams, and
        count the resulting n-grams as multisets. Clipped overlap caps the credit a
        repeated candidate n-gram can earn at the reference's own count. Precision,
        recall, and their harmonic mean F1 summarize the match, while caching layers
        memoize repeated scoring requests and circuit breakers protect against cascade
        failures in distributed deployments. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Tokenize(text)
				_ = tokens
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens := tokenizer.Tokenize(text)
			_ = tokens
		}
	})
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "candidate reference overlap precision recall "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Tokenize(text)
				_ = tokens
			}
		})
	}
}
