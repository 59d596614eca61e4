package agent

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"courier/internal/chunker"
	"courier/internal/config"
	"courier/internal/persona"
	"courier/internal/sessions"
)

// PromptBuilder assembles the system prompt sent with every completion
type PromptBuilder struct {
	agentName string
	identity  string
	persona   *persona.Persona
	chunking  *chunker.Config
	location  *time.Location
}

// NewPromptBuilder creates a prompt builder from the agent and chunking
// configuration. persona may be nil when no persona file is configured.
func NewPromptBuilder(agentCfg config.AgentConfig, chunkingCfg *chunker.Config, p *persona.Persona, loc *time.Location) *PromptBuilder {
	if loc == nil {
		loc = time.Local
	}
	return &PromptBuilder{
		agentName: agentCfg.Name,
		identity:  agentCfg.Identity,
		persona:   p,
		chunking:  chunkingCfg,
		location:  loc,
	}
}

// Build constructs the complete system prompt text
func (pb *PromptBuilder) Build(session *sessions.Session) string {
	sections := []string{
		pb.buildIdentitySection(),
		pb.buildPersonaSection(),
		buildStyleSection(),
		buildChunkingSection(pb.chunking),
		pb.buildRuntimeSection(session),
	}

	// Filter empty sections and join
	var nonEmpty []string
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(s))
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

// buildIdentitySection creates the identity section
func (pb *PromptBuilder) buildIdentitySection() string {
	if pb.identity != "" {
		return pb.identity
	}
	name := pb.agentName
	if name == "" {
		name = "Courier"
	}
	return fmt.Sprintf("You are %s, a personal assistant reachable over chat.", name)
}

// buildPersonaSection injects the persona file content
func (pb *PromptBuilder) buildPersonaSection() string {
	if pb.persona == nil {
		return ""
	}

	var builder strings.Builder
	builder.WriteString("## Persona\n")
	if pb.persona.Description != "" {
		builder.WriteString(pb.persona.Description + "\n")
	}
	if pb.persona.Tone != "" {
		builder.WriteString(fmt.Sprintf("Tone: %s\n", pb.persona.Tone))
	}
	if len(pb.persona.Traits) > 0 {
		builder.WriteString(fmt.Sprintf("Traits: %s\n", strings.Join(pb.persona.Traits, ", ")))
	}
	if pb.persona.Content != "" {
		builder.WriteString(pb.persona.Content + "\n")
	}
	return builder.String()
}

// buildRuntimeSection creates runtime context
func (pb *PromptBuilder) buildRuntimeSection(session *sessions.Session) string {
	hostname, _ := os.Hostname()

	var builder strings.Builder
	builder.WriteString("## Runtime\n")
	builder.WriteString(fmt.Sprintf("Host: %s | OS: %s/%s | %s\n", hostname, runtime.GOOS, runtime.GOARCH, runtime.Version()))
	builder.WriteString(fmt.Sprintf("Current time: %s\n", time.Now().In(pb.location).Format("Mon, 02 Jan 2006 15:04 MST")))
	if session != nil {
		builder.WriteString(fmt.Sprintf("Channel: %s\n", session.ChannelID))
	}
	return builder.String()
}
