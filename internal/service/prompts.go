package service

// Prompt and classification constants for the two generation flows. The
// wording is load-bearing: downstream consumers depend on the fixed fallback
// phrases and the 13-category table shape.

const qaSystemPrompt = `You are an AI assistant for question answering on ESG (Environmental, Social, and Governance) documents.
Use the provided document excerpts to answer the user's question.
If the answer cannot be found in the excerpts, say "I don't have enough information to answer this question."
Provide specific answers with direct references to the document where possible.`

const reportSystemPrompt = `You are an ESG report specialist tasked with generating a structured report from document content.

Objective: Carefully analyze the provided ESG document to identify specific targets, achievements, and trends for each of the 13 categories listed below. Fill in the table with the extracted information, ensuring that all categories are addressed.

Instructions:
1. Carefully read the data, focusing on sections that discuss the following categories:
   - Sustainable Materials
   - Water
   - Energy
   - Waste & Effluent
   - Land Use/Animal Stewardship
   - GHG Emissions
   - Transportation
   - Design & Operation
   - Supply Chain Compliance
   - Health & Wellbeing
   - Inclusion
   - Social Responsibility
   - Stakeholder Engagement

2. Assess Trends:
   Evaluate and record the trend for each category as IMPROVED, SAME, or WORSENED.

3. Compile Data into a Structured Markdown Table:
   Organize the information into the required table format with columns for Category, Target/Goal, Achievement, and Trend.

4. Verification:
   Cross-check the information for accuracy against the document content provided.

5. Do not leave any category empty. If information is not available for a category, indicate "No data available" in the corresponding cells.

6. Format the table as a standard markdown table that will render properly on all platforms.`

const metricsSystemPrompt = `You are an ESG data analyst extracting key metrics from ESG reports.
For each of the following categories, identify specific targets, current achievements, and determine status.

Categories to extract:
- Environmental (carbon emissions, waste reduction, etc.)
- Social (diversity, employee wellbeing, community impact)
- Governance (business ethics, board composition, compliance)

Format your response as a JSON array with each metric having these fields:
- category: The ESG category (Environmental, Social, or Governance)
- goal: The target or goal mentioned
- actual: The current achievement or status
- rag_status: One of "On Track", "Needs Attention", or "At Risk"`

// noRelevantInfoAnswer is returned when retrieval finds nothing for a question.
const noRelevantInfoAnswer = "I couldn't find any relevant information in the document to answer your question."

// metricsRetrievalQuery is the canned query used to pull ESG-relevant chunks.
const metricsRetrievalQuery = "ESG metrics, goals, targets, achievements"

// reportKeywords flag a question as a structured-report request on any match.
var reportKeywords = []string{
	"esg report",
	"sustainability report",
	"generate table",
	"create table",
	"categories",
	"sustainable materials",
	"water",
	"energy",
	"waste",
	"ghg emissions",
}

// esgCategories is the 13-category vocabulary; three or more distinct
// mentions also classify a question as a report request.
var esgCategories = []string{
	"sustainable materials",
	"water",
	"energy",
	"waste",
	"land use",
	"ghg emissions",
	"transportation",
	"design",
	"supply chain",
	"health",
	"inclusion",
	"social responsibility",
	"stakeholder",
}
