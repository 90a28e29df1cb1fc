package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/nimasrn/lead-desk/internal/actions"
	"github.com/nimasrn/lead-desk/internal/api"
	"github.com/nimasrn/lead-desk/internal/chat"
	"github.com/nimasrn/lead-desk/internal/config"
	"github.com/nimasrn/lead-desk/internal/filter"
	"github.com/nimasrn/lead-desk/internal/model"
	"github.com/nimasrn/lead-desk/internal/push"
	"github.com/nimasrn/lead-desk/internal/store"
	"github.com/nimasrn/lead-desk/pkg/redis"
	"github.com/spf13/pflag"
)

type app struct {
	cfg    *config.Config
	client *api.Client
	store  *store.Store
	out    io.Writer
}

func newApp(cfg *config.Config, out io.Writer) (*app, error) {
	client, err := api.NewClientFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, client: client, store: store.New(client), out: out}, nil
}

func (a *app) close() {
	_ = a.client.Close()
}

type command func(ctx context.Context, args []string) error

func (a *app) commands() map[string]command {
	return map[string]command{
		"list":      a.list,
		"create":    a.create,
		"update":    a.update,
		"delete":    a.remove,
		"attention": a.attention,
		"actions":   a.actions,
		"chat":      a.chat,
	}
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	cmd, ok := a.commands()[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd(ctx, args[1:])
}

func newFlagSet(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

// fetch loads the lead list and reports failure with the store's message.
func (a *app) fetch(ctx context.Context) error {
	if err := a.store.FetchLeads(ctx); err != nil {
		return fmt.Errorf("%s: %s", "Failed to fetch leads", a.store.Error())
	}
	return nil
}

func (a *app) lead(ctx context.Context, id int64) (model.Lead, error) {
	if err := a.fetch(ctx); err != nil {
		return model.Lead{}, err
	}
	lead, ok := a.store.GetLeadByID(id)
	if !ok {
		return model.Lead{}, fmt.Errorf("lead %d not found", id)
	}
	return lead, nil
}

func presetKeys() string {
	var keys []string
	for _, p := range filter.Presets() {
		keys = append(keys, p.Key)
	}
	return strings.Join(keys, ", ")
}

func (a *app) list(ctx context.Context, args []string) error {
	var preset, phone, sortField, order string
	var followUp, optedOut bool

	fs := newFlagSet("list")
	fs.StringVar(&preset, "preset", "", "apply a filter preset ("+presetKeys()+")")
	fs.StringVar(&phone, "phone", "", "keep leads whose phone contains this text")
	fs.StringVar(&sortField, "sort", model.FieldBomDate, "sort by this lead field, empty keeps fetch order")
	fs.StringVar(&order, "order", string(filter.Desc), "sort order, asc or desc")
	fs.BoolVar(&followUp, "follow-up", false, "only leads that need a follow-up")
	fs.BoolVar(&optedOut, "opted-out", false, "only leads that opted out")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if preset != "" && phone != "" {
		return fmt.Errorf("--preset and --phone cannot be combined")
	}

	if err := a.fetch(ctx); err != nil {
		return err
	}

	switch {
	case followUp:
		renderLeads(a.out, a.store.NeedsFollowUpLeads())
		return nil
	case optedOut:
		renderLeads(a.out, a.store.OptedOutLeads())
		return nil
	}

	if preset != "" {
		sel := store.NewPresetSelector(a.store, filter.Presets())
		defer sel.Close()
		if err := sel.Toggle(preset); err != nil {
			return fmt.Errorf("%w %q, expected one of %s", err, preset, presetKeys())
		}
	}
	if phone != "" {
		a.store.FilterByPhone(phone)
	}
	if sortField != "" {
		if !slices.Contains(model.LeadFields(), sortField) {
			return fmt.Errorf("unknown sort field %q", sortField)
		}
		a.store.SortLeads(sortField, filter.ParseOrder(order))
	}

	renderLeads(a.out, a.store.View())
	return nil
}

func (a *app) create(ctx context.Context, args []string) error {
	var in model.LeadInput
	var tg string

	fs := newFlagSet("create")
	fs.StringVar(&in.LeadName, "name", "", "lead name")
	fs.StringVar(&in.LeadPhone, "phone", "", "lead phone")
	fs.StringVar(&tg, "tg", "", "messaging username, used when there is no phone")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if tg != "" {
		in.TgUsername = &tg
	}
	if err := in.Validate(); err != nil {
		return err
	}

	lead, err := a.store.CreateLead(ctx, in)
	if err != nil {
		return fmt.Errorf("%s: %s", "Failed to create lead", a.store.Error())
	}
	fmt.Fprintf(a.out, "created lead %d\n", lead.ID)
	renderLeads(a.out, []model.Lead{lead})
	return nil
}

// parseValue reads true, false and null literally; any other text is a string.
func parseValue(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	return v
}

func parseSet(pairs []string) (model.LeadUpdate, error) {
	updates := model.LeadUpdate{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", p)
		}
		updates[k] = parseValue(v)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("at least one --set is required")
	}
	return updates, updates.Validate()
}

func (a *app) update(ctx context.Context, args []string) error {
	var id int64
	var sets []string

	fs := newFlagSet("update")
	fs.Int64Var(&id, "id", 0, "lead id")
	fs.StringArrayVar(&sets, "set", nil, "field=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	updates, err := parseSet(sets)
	if err != nil {
		return err
	}

	lead, err := a.store.UpdateLead(ctx, id, updates)
	if err != nil {
		return fmt.Errorf("%s: %s", "Failed to update lead", a.store.Error())
	}
	renderLeads(a.out, []model.Lead{lead})
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	var id int64

	fs := newFlagSet("delete")
	fs.Int64Var(&id, "id", 0, "lead id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.store.DeleteLead(ctx, id); err != nil {
		return fmt.Errorf("%s: %s", "Failed to delete lead", a.store.Error())
	}
	fmt.Fprintf(a.out, "deleted lead %d\n", id)
	return nil
}

func (a *app) attention(ctx context.Context, args []string) error {
	var phone string

	fs := newFlagSet("attention")
	fs.StringVar(&phone, "phone", "", "lead phone or id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if phone == "" {
		return fmt.Errorf("--phone is required")
	}
	if err := a.store.SwitchAttention(ctx, phone); err != nil {
		return fmt.Errorf("%s: %s", "Failed to switch attention", a.store.Error())
	}
	renderLeads(a.out, filter.ByPhone(a.store.Leads(), phone))
	return nil
}

func (a *app) actions(ctx context.Context, args []string) error {
	var id int64
	var name string

	fs := newFlagSet("actions")
	fs.Int64Var(&id, "id", 0, "lead to run the action on")
	fs.StringVar(&name, "run", "", "action name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	table := actions.Table(a.store)
	if name == "" {
		renderActions(a.out, table)
		return nil
	}

	action, ok := actions.ByName(table, name)
	if !ok {
		return fmt.Errorf("unknown action %q", name)
	}
	lead, err := a.lead(ctx, id)
	if err != nil {
		return err
	}
	if err := action.Invoke(ctx, lead); err != nil {
		return fmt.Errorf("%s: %w", action.Name, err)
	}
	fmt.Fprintf(a.out, "%s: done for lead %d\n", action.Name, lead.ID)
	return nil
}

func (a *app) chat(ctx context.Context, args []string) error {
	var id int64
	var text string
	var watch bool

	fs := newFlagSet("chat")
	fs.Int64Var(&id, "id", 0, "lead id")
	fs.StringVar(&text, "send", "", "send this message first")
	fs.BoolVar(&watch, "watch", false, "keep running and show new activity")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := a.lead(ctx, id); err != nil {
		return err
	}
	a.store.SelectLeadByID(id)

	session := chat.NewSession(a.client, a.store)
	defer session.Close()

	if text != "" {
		if err := session.Send(ctx, text); err != nil {
			return errors.New(session.Error())
		}
	} else if err := session.Fetch(ctx); err != nil {
		return errors.New(session.Error())
	}
	renderMessages(a.out, session.Messages())

	if !watch {
		return nil
	}
	return a.watch(ctx, session)
}

// watch re-renders the conversation on push activity until ctx is done.
func (a *app) watch(ctx context.Context, session *chat.Session) error {
	rdb, err := redis.NewRedisAdapter("default", a.cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{a.cfg.RedisAddr},
		ClientName: a.cfg.AppName + "_leadctl",
		DB:         a.cfg.RedisDatabase,
		Username:   a.cfg.RedisUsername,
		Password:   a.cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("push channel unavailable: %w", err)
	}
	defer rdb.Close()

	ch := push.NewChannel(rdb)
	if err := ch.Connect(ctx); err != nil {
		return err
	}
	defer ch.Disconnect()

	lead := a.store.SelectedLead()
	if err := ch.SubscribeToLead(ctx, lead.LeadPhone); err != nil {
		return err
	}
	defer ch.UnsubscribeFromLead(context.Background(), lead.LeadPhone)

	var mu sync.Mutex
	cancel := session.Subscribe(func() {
		if session.Loading() {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		renderMessages(a.out, session.Messages())
	})
	defer cancel()
	ch.OnMessageActivity(session.HandleActivity)

	fmt.Fprintf(a.out, "watching %s, press ctrl-c to stop\n", lead.LeadPhone)
	<-ctx.Done()
	return nil
}
