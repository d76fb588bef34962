// Package reelkit 是一个影视推荐核心（Reel Kit）。
//
// 设计要点：
// - Pipeline-first: 召回 → 过滤 → 精排 → 多样性重排，全部以 Node 串联
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 就地降级: 任何外部协作方失败只影响对应分支，推荐结果永不整体失败
package reelkit

import "github.com/reelkit/reelkit/pipeline"

// 轻量 facade：便于用户直接 import "reelkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
