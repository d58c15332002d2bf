package menu

import "log/slog"

// MaxDepth bounds the navigation stack. Menus nest at most game →
// difficulty → color deep, so four slots leave headroom.
const MaxDepth = 4

// Navigator is a bounded stack of menus giving push/pop hierarchical
// navigation. It never owns the menus it references; they must outlive
// it. Back-button selections pop automatically and re-show the parent.
type Navigator struct {
	logger *slog.Logger
	stack  [MaxDepth]*Menu
	top    int // index of top element, -1 = empty
}

func NewNavigator(logger *slog.Logger) *Navigator {
	return &Navigator{
		logger: logger.With("component", "menu-navigator"),
		top:    -1,
	}
}

// Push makes a menu the active one, resetting and showing it. A push
// past MaxDepth is logged and ignored.
func (that *Navigator) Push(m *Menu) {
	if that.top >= MaxDepth-1 {
		that.logger.Warn("menu stack full, ignoring push", "depth", that.Depth())
		return
	}
	that.top++
	that.stack[that.top] = m
	m.Reset()
	m.Show()
}

// Pop removes the active menu and re-shows its parent, if any. No-op on
// an empty stack.
func (that *Navigator) Pop() {
	if that.top < 0 {
		return
	}
	that.stack[that.top] = nil
	that.top--
	if that.top >= 0 {
		that.stack[that.top].Reset()
		that.stack[that.top].Show()
	}
}

// Poll delegates to the active menu. A back selection pops internally
// and returns ResultNone, unless the pop emptied the stack. Then
// ResultBack propagates so the caller knows the menu tree was exited.
func (that *Navigator) Poll() int {
	if that.top < 0 {
		return ResultNone
	}

	result := that.stack[that.top].Poll()
	if result == ResultBack {
		that.Pop()
		if that.top < 0 {
			return ResultBack
		}
		return ResultNone
	}
	return result
}

// Current returns the active menu, or nil when the stack is empty.
func (that *Navigator) Current() *Menu {
	if that.top < 0 {
		return nil
	}
	return that.stack[that.top]
}

// Depth is the number of stacked menus, 0 when empty.
func (that *Navigator) Depth() int {
	return that.top + 1
}

// Empty reports whether no menu is active.
func (that *Navigator) Empty() bool {
	return that.top < 0
}

// Clear hides the active menu and empties the stack. Use when an
// external event (web mode selection, game over) overrides the menu.
func (that *Navigator) Clear() {
	if that.top >= 0 {
		that.stack[that.top].Hide()
	}
	for i := 0; i <= that.top; i++ {
		that.stack[i] = nil
	}
	that.top = -1
}
