package stats

import (
	"fmt"
	"math"
)

// costBuckets 為花費分布的區間邊界（orbs）：[0,20), [20,50), ..., [2000,+inf)。
//
// 請勿修改預設值，報告與前端圖表依賴固定標籤。
var costBuckets = []int{0, 20, 50, 100, 150, 200, 300, 500, 750, 1000, 2000}

// DistReport 花費區間落點統計
type DistReport struct {
	Bucket  []string  `json:"Bucket" yaml:"bucket"`
	Collect []uint64  `json:"Collect" yaml:"collect"`
	Dist    []float64 `json:"Dist" yaml:"dist"`
	// Cumulative 為該區間上界以內（含前面所有區間）達成目標的比例。
	Cumulative []float64 `json:"Cumulative" yaml:"cumulative"`
}

// BucketLabels 回傳區間標籤。
func BucketLabels() []string {
	out := make([]string, len(costBuckets))
	for i, lo := range costBuckets {
		if i == len(costBuckets)-1 {
			out[i] = fmt.Sprintf("[%d,+inf)", lo)
			continue
		}
		out[i] = fmt.Sprintf("[%d,%d)", lo, costBuckets[i+1])
	}
	return out
}

// bucketOf 回傳花費 k 所在的區間索引。
func bucketOf(k int) int {
	idx := 0
	for i, lo := range costBuckets {
		if k >= lo {
			idx = i
		}
	}
	return idx
}

func costDist(h *Histogram) DistReport {
	d := DistReport{
		Bucket:     BucketLabels(),
		Collect:    make([]uint64, len(costBuckets)),
		Dist:       make([]float64, len(costBuckets)),
		Cumulative: make([]float64, len(costBuckets)),
	}
	h.Each(func(k int, n uint64) {
		d.Collect[bucketOf(k)] += n
	})
	total := h.Total()
	if total == 0 {
		return d
	}
	cum := uint64(0)
	for i, n := range d.Collect {
		cum += n
		d.Dist[i] = round4(float64(n) / float64(total))
		d.Cumulative[i] = round4(float64(cum) / float64(total))
	}
	return d
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
