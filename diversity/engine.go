package diversity

import (
	"math/rand"
	"time"
)

// hybridDPPWindow 是 hybrid 模式下送入 DPP 的 MMR 头部长度。
const hybridDPPWindow = 30

// Engine 是多样性算法的编排器。
//
// 不是进程级单例：由调用方显式构造并按引用传递，不同推荐面可以各持
// 各的配置与随机源，测试之间互不串扰。
type Engine struct {
	rng *rand.Rand
}

// New 用注入的随机源构造 Engine；rng 为 nil 时使用时间种子的真实熵源。
func New(rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{rng: rng}
}

// Rand 暴露 Engine 的随机源，供调用方在算法步骤之外（如探索间隔抖动）复用。
func (e *Engine) Rand() *rand.Rand { return e.rng }

// Apply 按固定顺序执行完整的多样性编排：
//
//	主算法（mmr / dpp / hybrid）→ 类型均衡 → epsilon 探索 → 惊喜注入
//
// 惊喜注入只在 userGenrePrefs 非空时执行。输入不被修改。
func (e *Engine) Apply(cands []Candidate, cfg Config, userGenrePrefs []string) []Candidate {
	if len(cands) == 0 {
		return nil
	}

	var out []Candidate
	switch cfg.Metric {
	case MetricDPP:
		dpp := &DPP{}
		out = dpp.Select(cands, len(cands))
	case MetricHybrid:
		out = MMR(cands, cfg.Lambda, len(cands))
		window := hybridDPPWindow
		if window > len(out) {
			window = len(out)
		}
		dpp := &DPP{}
		head := dpp.Select(out[:window], window)
		out = append(head, out[window:]...)
	case MetricMMR:
		fallthrough
	default:
		out = MMR(cands, cfg.Lambda, len(cands))
	}

	balancer := &GenreBalancer{MaxConsecutive: cfg.MaxConsecutiveSameGenre}
	out = balancer.Balance(out)

	explorer := &Explorer{Epsilon: cfg.EpsilonExploration, Rand: e.rng}
	out = explorer.Explore(out, cands)

	if len(userGenrePrefs) > 0 {
		injector := &SerendipityInjector{Rate: cfg.SerendipityRate}
		out = injector.Inject(out, userGenrePrefs)
	}

	return out
}
