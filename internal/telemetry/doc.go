// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为编排器的每次运行提供集中式的 TracerProvider 和 MeterProvider 配置。
// workflow.Executor 通过全局 TracerProvider 为每个步骤打点
// （step.id/step.plugin/step.state），在遥测禁用时这些调用落在
// noop provider 上，不产生任何开销或网络连接。
package telemetry
