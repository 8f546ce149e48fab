package command

import (
	"context"
	"fmt"
	"regexp"

	"github.com/oklahomer/go-sarah/v4"
)

// Func handles one invocation. args is the message text after the prefix and command name.
type Func func(ctx context.Context, input sarah.Input, args string) (*sarah.CommandResponse, error)

// Command binds a name under the prefix to a Func.
type Command struct {
	Name        string
	Instruction string
	Func        Func
}

// Registry maps each command name to exactly one command.
type Registry struct {
	botType  sarah.BotType
	prefix   string
	reserved map[string]struct{}
	names    map[string]struct{}
	commands []*Command
}

// NewRegistry creates an empty Registry. reserved names, such as the adapter's help command, are refused.
func NewRegistry(botType sarah.BotType, prefix string, reserved ...string) *Registry {
	r := &Registry{
		botType:  botType,
		prefix:   prefix,
		reserved: map[string]struct{}{},
		names:    map[string]struct{}{},
	}
	for _, name := range reserved {
		r.reserved[name] = struct{}{}
	}
	return r
}

// Add registers cmd. A name can be added only once.
func (r *Registry) Add(cmd *Command) error {
	if _, ok := r.reserved[cmd.Name]; ok {
		return fmt.Errorf("%w: %s", ErrReservedCommand, cmd.Name)
	}
	if _, ok := r.names[cmd.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, cmd.Name)
	}

	r.names[cmd.Name] = struct{}{}
	r.commands = append(r.commands, cmd)
	return nil
}

// Names returns the registered command names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for _, cmd := range r.commands {
		names = append(names, cmd.Name)
	}
	return names
}

// Pattern returns the expression a message must match to invoke the named command.
func (r *Registry) Pattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^\s*` + regexp.QuoteMeta(r.prefix+name) + `(?:\s+|$)`)
}

// Props builds go-sarah command properties for every registered command.
func (r *Registry) Props() ([]*sarah.CommandProps, error) {
	props := make([]*sarah.CommandProps, 0, len(r.commands))
	for _, cmd := range r.commands {
		p, err := r.build(cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to build command %s: %w", cmd.Name, err)
		}
		props = append(props, p)
	}
	return props, nil
}

// Register hands every command to register, typically sarah.RegisterCommandProps.
func (r *Registry) Register(register func(*sarah.CommandProps)) error {
	props, err := r.Props()
	if err != nil {
		return err
	}

	for _, p := range props {
		register(p)
	}
	return nil
}

func (r *Registry) build(cmd *Command) (*sarah.CommandProps, error) {
	pattern := r.Pattern(cmd.Name)
	fnc := cmd.Func

	return sarah.NewCommandPropsBuilder().
		BotType(r.botType).
		Identifier(cmd.Name).
		MatchPattern(pattern).
		Func(func(ctx context.Context, input sarah.Input) (*sarah.CommandResponse, error) {
			return fnc(ctx, input, sarah.StripMessage(pattern, input.Message()))
		}).
		Instruction(cmd.Instruction).
		Build()
}
