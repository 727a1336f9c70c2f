package oracle

// extractionPrompt instructs the model to emit strict JSON; the chunk text
// is appended directly after it.
const extractionPrompt = `Extract all entities and relationships from the text below.

Return ONLY valid JSON with this exact structure:
{
  "entities": [
    {
      "label": "entity name (short, 1-4 words)",
      "type": "CONCEPT|PERSON|ORG|DATE|LOCATION|TERM|EVENT",
      "description": "one sentence description from the text"
    }
  ],
  "relationships": [
    {
      "source": "entity label (must match an entity above)",
      "target": "entity label (must match an entity above)",
      "label": "short relationship verb (e.g. defines, references, contains, modifies, uses)",
      "sentence": "the exact sentence this relationship came from"
    }
  ]
}

Rules:
- Extract 5-25 entities per chunk
- Extract meaningful relationships only
- All relationship source/target must match entity labels exactly
- Labels must be concise (no full sentences)
- Return ONLY the JSON, no other text

Text:
`

// answerSystem constrains answer generation to the retrieved graph context.
const answerSystem = `You are a precise knowledge assistant. Answer questions based ONLY on the provided context extracted from a knowledge graph.

Rules:
- Be concise but complete
- Cite specific concepts from the context using [Node Name] notation
- If the context doesn't contain enough information, say so
- Do not make up information not present in the context
`
