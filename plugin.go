package stash

// Plugin is a named bundle of hook handlers. Nil handlers are skipped at
// registration.
type Plugin struct {
	Name string

	BuildKey         Handler[KeyArgs, KeyUpdate]
	BeforeSetItem    Handler[SetItemArgs, SetItemUpdate]
	AfterSetItem     Handler[SetItemResultArgs, SetItemResultUpdate]
	BeforeGetItem    Handler[KeyArgs, KeyUpdate]
	AfterGetItem     Handler[GetItemResultArgs, GetItemResultUpdate]
	BeforeHasItem    Handler[KeyArgs, KeyUpdate]
	AfterHasItem     Handler[ResultArgs, ResultUpdate]
	BeforeRemoveItem Handler[KeyArgs, KeyUpdate]
	AfterRemoveItem  Handler[ResultArgs, ResultUpdate]
	BeforeSetExtra   Handler[SetExtraArgs, SetExtraUpdate]
	AfterSetExtra    Handler[ExtraResultArgs, ExtraResultUpdate]
	BeforeGetExtra   Handler[KeyArgs, KeyUpdate]
	AfterGetExtra    Handler[ExtraResultArgs, ExtraResultUpdate]
}

// Hooks returns the hooks p provides a handler for, in pipeline order.
func (p Plugin) Hooks() []Hook {
	set := map[Hook]bool{
		HookBuildKey:         p.BuildKey != nil,
		HookBeforeSetItem:    p.BeforeSetItem != nil,
		HookAfterSetItem:     p.AfterSetItem != nil,
		HookBeforeGetItem:    p.BeforeGetItem != nil,
		HookAfterGetItem:     p.AfterGetItem != nil,
		HookBeforeHasItem:    p.BeforeHasItem != nil,
		HookAfterHasItem:     p.AfterHasItem != nil,
		HookBeforeRemoveItem: p.BeforeRemoveItem != nil,
		HookAfterRemoveItem:  p.AfterRemoveItem != nil,
		HookBeforeSetExtra:   p.BeforeSetExtra != nil,
		HookAfterSetExtra:    p.AfterSetExtra != nil,
		HookBeforeGetExtra:   p.BeforeGetExtra != nil,
		HookAfterGetExtra:    p.AfterGetExtra != nil,
	}

	var hooks []Hook
	for _, h := range AllHooks {
		if set[h] {
			hooks = append(hooks, h)
		}
	}
	return hooks
}
