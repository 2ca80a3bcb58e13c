// Copyright 2023 AI Redefined Inc. <dev+cogment@ai-r.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package devserver

import "sync"

// reloadBroadcaster notifies the connected live reload clients
type reloadBroadcaster struct {
	mutex       sync.Mutex
	subscribers map[chan struct{}]struct{}
	closed      bool
}

func newReloadBroadcaster() *reloadBroadcaster {
	return &reloadBroadcaster{
		subscribers: map[chan struct{}]struct{}{},
	}
}

func (b *reloadBroadcaster) subscribe() (<-chan struct{}, func()) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ch := make(chan struct{}, 1)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subscribers[ch] = struct{}{}

	return ch, func() {
		b.mutex.Lock()
		defer b.mutex.Unlock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
	}
}

// broadcast returns the number of notified clients
func (b *reloadBroadcaster) broadcast() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for ch := range b.subscribers {
		// A pending notification is enough
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return len(b.subscribers)
}

func (b *reloadBroadcaster) close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.closed = true
	for ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = map[chan struct{}]struct{}{}
}
