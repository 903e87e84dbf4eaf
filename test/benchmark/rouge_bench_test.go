// Package benchmark contains Go benchmarks for the ROUGE scoring core, the
// worker engine, and the result archive, measuring throughput and allocation
// behaviour.
package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/rouge"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/rouge/tokenizer"
)

// BenchmarkExtractNgrams measures n-gram extraction cost at increasing window
// widths over a fixed medium-length token stream.
func BenchmarkExtractNgrams(b *testing.B) {
	tokens := tokenizer.Tokenize(sampleTexts["medium"])
	for _, n := range []int{1, 2, 3, 4} {
		b.Run(fmt.Sprintf("n_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				ngrams, err := rouge.ExtractNgrams(tokens, n)
				if err != nil {
					b.Fatal(err)
				}
				_ = ngrams
			}
		})
	}
}

// BenchmarkClippedOverlap measures the multiset intersection cost for two
// realistic unigram multisets.
func BenchmarkClippedOverlap(b *testing.B) {
	candidate, _ := rouge.ExtractNgrams(tokenizer.Tokenize(sampleTexts["medium"]), 1)
	reference, _ := rouge.ExtractNgrams(tokenizer.Tokenize(sampleTexts["long"]), 1)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		overlap := rouge.ClippedOverlap(candidate, reference)
		_ = overlap
	}
}

// BenchmarkRougeN measures end-to-end single-pair scoring, the unit of work
// the scorer executor parallelizes.
func BenchmarkRougeN(b *testing.B) {
	candidate := sampleTexts["medium"]
	references := []string{sampleTexts["medium"], sampleTexts["short"], sampleTexts["long"]}

	for _, n := range []int{1, 2, 3} {
		b.Run(fmt.Sprintf("n_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				score, err := rouge.RougeN(candidate, references, n, rouge.AggregationMax)
				if err != nil {
					b.Fatal(err)
				}
				_ = score
			}
		})
	}
}

// BenchmarkRougeNParallel measures concurrent scoring throughput, mirroring
// the executor's bounded fan-out over a batch.
func BenchmarkRougeNParallel(b *testing.B) {
	candidate := sampleTexts["medium"]
	references := []string{sampleTexts["medium"], sampleTexts["short"]}

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			score, err := rouge.RougeN(candidate, references, 2, rouge.AggregationMax)
			if err != nil {
				b.Fatal(err)
			}
			_ = score
		}
	})
}

// BenchmarkRougeNReferenceCount measures how scoring cost scales with the
// number of references per candidate.
func BenchmarkRougeNReferenceCount(b *testing.B) {
	candidate := sampleTexts["medium"]
	base := strings.Fields(sampleTexts["long"])

	for _, refCount := range []int{1, 4, 16, 64} {
		references := make([]string, refCount)
		for i := range references {
			// Offset each reference so they are not identical.
			references[i] = strings.Join(base[i%32:i%32+40], " ")
		}
		b.Run(fmt.Sprintf("refs_%d", refCount), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				score, err := rouge.RougeN(candidate, references, 2, rouge.AggregationAverage)
				if err != nil {
					b.Fatal(err)
				}
				_ = score
			}
		})
	}
}
