package chat

// PruneFunc 在某个连接因写失败被移出注册表后调用，每个连接最多调用一次
type PruneFunc func(e Entry, removed bool, err error)

// Broadcaster 把一条消息扇出给注册表快照中的所有连接（发送者除外）
type Broadcaster struct {
	reg     *Registry
	onPrune PruneFunc
}

// Result 一次广播的结果
type Result struct {
	Delivered int
	Pruned    []Handle
}

func NewBroadcaster(reg *Registry, onPrune PruneFunc) *Broadcaster {
	return &Broadcaster{reg: reg, onPrune: onPrune}
}

// Broadcast 写出 line+"\n" 到除 exclude 外的每个连接。
// 单个连接写失败时关闭并移除该连接，继续投递其余连接；不重试，不回执。
func (b *Broadcaster) Broadcast(line string, exclude Handle) Result {
	var res Result
	for _, e := range b.reg.Snapshot(exclude) {
		if e.Conn == nil {
			continue
		}
		if err := e.Conn.WriteLine(line); err != nil {
			// 先移出注册表再关闭，其它广播不会再取到这个已关闭的连接
			_, removed := b.reg.Remove(e.Handle)
			_ = e.Conn.Close()
			// 并发广播可能同时写失败，只有真正移除它的那一次计为剔除
			if !removed {
				continue
			}
			res.Pruned = append(res.Pruned, e.Handle)
			if b.onPrune != nil {
				b.onPrune(e, removed, err)
			}
			continue
		}
		res.Delivered++
	}
	return res
}
