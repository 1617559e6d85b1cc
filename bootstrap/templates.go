package bootstrap

// DefaultReplyTemplate prompts for the REPLY action's text.
const DefaultReplyTemplate = `# Task: Generate dialog for the character {{.agentName}}.

{{.providers}}

# Instructions: Write the next message for {{.agentName}}.
Respond using this format:
<response>
  <thought>Your thought here</thought>
  <text>Your message here</text>
</response>

Your response must ONLY include the <response></response> block.`

// DefaultReflectionTemplate prompts the REFLECTION evaluator.
const DefaultReflectionTemplate = `# Task: Reflect on {{.agentName}}'s latest exchange.

{{.providers}}

# Instructions: In one or two sentences, note what {{.agentName}} should remember or do differently.
Respond using this format:
<response>
  <thought>Your reflection here</thought>
</response>`
