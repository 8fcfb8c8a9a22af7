package newsletter

import "time"

// Timer は予約済みの遅延処理のハンドル。
type Timer interface {
	// Stop は予約を取り消す。既に発火済みまたは取り消し済みの場合はfalseを返す。
	Stop() bool
}

// Scheduler は一度だけ実行される遅延処理を予約する。
// テストでは時刻を手動で進めるフェイク実装に差し替える。
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// realScheduler はtime.AfterFuncによるScheduler実装。
type realScheduler struct{}

// RealScheduler はtime.AfterFuncを使うSchedulerを返す。
func RealScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
