package flow

import "time"

// StatusLines 生成过程中轮播的状态文案，最后一条在完成时展示
var StatusLines = []string{
	"Framing your curiosity...",
	"Linking with luminous minds...",
	"Collecting whispers from the archives...",
	"Letting the model daydream about your scene...",
	"Sketching metaphors in the margin...",
	"Harmonizing facts with your preference...",
	"Polishing your learning prompt...",
	"Card crafted. Delivering now...",
}

// 进度条参数
const (
	ProgressInterval = 700 * time.Millisecond
	StatusInterval   = 2800 * time.Millisecond
	SettleDelay      = 600 * time.Millisecond

	fastPhaseCeil = 80.0 // 之前大步前进
	fastStep      = 12.0
	slowPhaseCeil = 97.0 // 之后小步逼近，永远到不了 100
	slowStep      = 2.0
)

// nextProgress 计算下一个进度值，r 为 [0,1) 的随机数
// 结果单调不减且小于 100
func nextProgress(prev, r float64) float64 {
	if r < 0 {
		r = 0
	}
	if prev < fastPhaseCeil {
		return min(prev+r*fastStep, fastPhaseCeil)
	}
	return max(prev, min(prev+r*slowStep, slowPhaseCeil))
}

// nextStatus 轮播到下一条文案
func nextStatus(idx, total int) int {
	if total == 0 {
		return 0
	}
	return (idx + 1) % total
}
