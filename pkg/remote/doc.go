// Package remote 提供远程命令执行协作方的抽象和两个实现：
// SSH（KVM/libvirt 宿主机）和 WinRM（Hyper-V 宿主机）。
//
// 收敛引擎只依赖 Dialer/Session 接口，命令已经在上游渲染完毕，
// 这里负责原样执行并带回退出码和输出。超时通过 context 传入，
// 本包不自带重试。
package remote
