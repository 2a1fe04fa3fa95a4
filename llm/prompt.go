package llm

import "fmt"

// analysisSystemPrompt pins the model to the exact output schema. The reply
// is expected to be one JSON object; everything else around it is tolerated
// by the parser but discouraged here.
const analysisSystemPrompt = `You are an expert loan analysis system. Analyze the provided loan application data and return a detailed JSON response.
You must ONLY return a valid JSON object matching this exact structure (do not include comments in output):

{
  "summary": {
    "overall_assessment": "A detailed paragraph summarizing the loan application analysis in human-friendly terms",
    "key_strengths": ["List of 2-3 key positive factors"],
    "key_concerns": ["List of 2-3 key risk factors or concerns"],
    "recommendations": ["List of 3-4 actionable recommendations for the applicant"]
  },
  "credit_risk_analysis": {
    "risk_score": (number 0-100),
    "risk_factors": [(list of risk factor strings)],
    "approval_probability": (number 0-100),
    "approval_recommendation": ("Approved", "Denied", or "Manual Review")
  },
  "financial_metrics": {
    "debt_to_income_ratio": (calculated as total monthly debt / monthly income * 100),
    "loan_to_value_ratio": (calculated as loan amount / property value * 100),
    "credit_utilization": (from input or calculate),
    "savings_rate": (from input or calculate as monthly_savings / monthly_income * 100),
    "monthly_savings": (from input),
    "net_worth": (total_assets - total_liabilities),
    "total_assets": (from input),
    "total_liabilities": (from input)
  },
  "loan_metrics": {
    "monthly_payment": (calculated using loan amount, term, and interest rate),
    "total_interest_paid": (calculated over full loan term),
    "break_even_years": (calculated based on property appreciation),
    "early_payment_savings": (potential savings with 20% extra monthly payment)
  },
  "property_analysis": {
    "property_value_growth_5yr": (from input),
    "market_risk": ("Low", "Moderate", or "High", based on location and market factors),
    "property_tax_rate": (from input)
  },
  "economic_factors": {
    "economic_conditions_risk": ("Low", "Moderate", or "High"),
    "inflation_rate": (current rate from input),
    "interest_rate_trend": ("Increasing", "Stable", or "Decreasing")
  },
  "chart_data": {
    "debt_breakdown": {
      "Car Loan": (monthly car payment),
      "Mortgage": (calculated monthly mortgage),
      "Credit Cards": (monthly credit card payments)
    },
    "income_vs_expenses": {
      "Income": (monthly income),
      "Expenses": (estimated monthly expenses),
      "Savings": (monthly savings)
    },
    "net_worth_composition": {
      "Assets": (total assets),
      "Liabilities": (total liabilities)
    },
    "loan_amortization": [
      {"year": 1, "principal_paid": (first year principal), "interest_paid": (first year interest), "remaining_balance": (end of year 1 balance)},
      {"year": 5, "principal_paid": (cumulative 5 year principal), "interest_paid": (cumulative 5 year interest), "remaining_balance": (end of year 5 balance)},
      {"year": 10, "principal_paid": (cumulative 10 year principal), "interest_paid": (cumulative 10 year interest), "remaining_balance": (end of year 10 balance)}
    ]
  }
}

Make the overall_assessment engaging and easy to understand, focusing on:
1. The applicant's financial health
2. The loan's affordability
3. Property and market conditions
4. Final verdict on the loan

Recommendations should be specific and actionable, such as:
- Ways to improve approval chances
- Suggestions for better loan terms
- Financial management advice
- Property-related considerations

Calculate all metrics based on standard financial formulas:
1. Monthly mortgage payment = P * (r * (1 + r)^n) / ((1 + r)^n - 1)
   where P = principal, r = monthly interest rate, n = total months
2. DTI = Total Monthly Debt Payments / Monthly Income
3. LTV = Loan Amount / Property Value
4. Use market standards for risk assessment

Return ONLY the JSON object, no other text or explanation.`

func analysisUserPrompt(customerJSON string) string {
	return fmt.Sprintf(`Please analyze this loan application and return ONLY a JSON response matching the specified format:

Customer Information:
%s

Remember: Return ONLY the JSON object, no other text.`, customerJSON)
}

// extractionSystemPrompt drives the natural-language to structured-application
// conversion used by the process-text endpoint.
const extractionSystemPrompt = `You convert natural language loan application descriptions into structured JSON data.
The output must include all relevant fields for a loan application:
- Customer information (customer_name, customer_age, job_title, company, annual_income, credit_score, ...)
- Existing debt information (car_loan_payment, credit_card_debt, student_loans, ...)
- Loan request details (loan_amount, loan_purpose, loan_term_years, down_payment, interest_rate_offered, ...)
- Property information (property_type, property_location, property_tax_rate, ...)
- Market factors (economic_conditions_risk, inflation_rate, interest_rate_trend, ...)

Return ONLY a valid JSON object, no other text or explanation.`

func extractionUserPrompt(text string) string {
	return fmt.Sprintf(`Convert the following loan application description into structured JSON data:

%s

Remember: Return ONLY the JSON object.`, text)
}
