package catalog

import "github.com/Veraticus/statement-mapper/internal/model"

func dateField(synonyms ...string) FieldSpec {
	return FieldSpec{
		Definition: model.FieldDefinition{
			Key:         model.FieldDate,
			Label:       "Date",
			Description: "When the payment or transaction took place",
			Type:        model.FieldTypeDate,
			Examples:    []string{"06/04/2024", "2024-04-06", "6 Apr 2024"},
		},
		Synonyms: append([]string{
			"date", "transaction date", "payment date", "posting date", "posted date",
			"value date", "effective date", "processed date", "completed date",
		}, synonyms...),
		Validator: IsDate,
		Required:  true,
	}
}

func amountField(description string, synonyms ...string) FieldSpec {
	return FieldSpec{
		Definition: model.FieldDefinition{
			Key:         model.FieldAmount,
			Label:       "Amount",
			Description: description,
			Type:        model.FieldTypeCurrency,
			Examples:    []string{"£250.00", "1,200.50", "-45.99"},
		},
		Synonyms: append([]string{
			"amount", "transaction amount", "payment amount", "value", "net amount", "gross amount",
		}, synonyms...),
		Validator: IsCurrency,
		Required:  true,
	}
}

func providerField(synonyms ...string) FieldSpec {
	return FieldSpec{
		Definition: model.FieldDefinition{
			Key:         model.FieldProvider,
			Label:       "Provider",
			Description: "Institution that issued the statement",
			Type:        model.FieldTypeText,
			Examples:    []string{"Aviva", "Nationwide", "Vanguard"},
		},
		Synonyms:  append([]string{"provider", "institution", "company", "bank"}, synonyms...),
		Validator: IsText,
	}
}

func balanceField(synonyms ...string) FieldSpec {
	return FieldSpec{
		Definition: model.FieldDefinition{
			Key:         model.FieldBalance,
			Label:       "Balance",
			Description: "Running or closing balance after the transaction",
			Type:        model.FieldTypeCurrency,
			Examples:    []string{"£12,450.00", "3,210.77"},
		},
		Synonyms:  append([]string{"balance", "running balance", "closing balance", "current balance"}, synonyms...),
		Validator: IsCurrency,
	}
}

func descriptionField(synonyms ...string) FieldSpec {
	return FieldSpec{
		Definition: model.FieldDefinition{
			Key:         model.FieldDescription,
			Label:       "Description",
			Description: "Free-text narrative of the transaction",
			Type:        model.FieldTypeText,
			Examples:    []string{"Regular contribution", "Interest paid"},
		},
		Synonyms: append([]string{
			"description", "details", "narrative", "transaction description", "memo", "particulars", "notes",
		}, synonyms...),
		Validator: IsText,
	}
}

func referenceField() FieldSpec {
	return FieldSpec{
		Definition: model.FieldDefinition{
			Key:         model.FieldReference,
			Label:       "Reference",
			Description: "Provider reference or transaction identifier",
			Type:        model.FieldTypeText,
			Examples:    []string{"REF-00123", "TX20240406"},
		},
		Synonyms: []string{
			"reference", "reference number", "payment reference", "transaction id", "transaction reference", "ref no",
		},
		Validator: IsReference,
	}
}

func transactionTypeField(synonyms ...string) FieldSpec {
	return FieldSpec{
		Definition: model.FieldDefinition{
			Key:         model.FieldTransactionType,
			Label:       "Transaction Type",
			Description: "Kind of transaction (contribution, withdrawal, buy, sell...)",
			Type:        model.FieldTypeSelect,
			Examples:    []string{"Contribution", "Withdrawal", "Buy"},
		},
		Synonyms:  append([]string{"type", "transaction type", "payment type"}, synonyms...),
		Validator: IsText,
	}
}

func interestRateField(synonyms ...string) FieldSpec {
	return FieldSpec{
		Definition: model.FieldDefinition{
			Key:         model.FieldInterestRate,
			Label:       "Interest Rate",
			Description: "Annual interest rate applied to the account",
			Type:        model.FieldTypeNumber,
			Examples:    []string{"4.5%", "19.9"},
		},
		Synonyms:  append([]string{"interest rate", "rate", "aer", "gross rate"}, synonyms...),
		Validator: IsPercentage,
	}
}

func currencyField(key model.FieldKey, label, description string, synonyms ...string) FieldSpec {
	return FieldSpec{
		Definition: model.FieldDefinition{
			Key:         key,
			Label:       label,
			Description: description,
			Type:        model.FieldTypeCurrency,
			Examples:    []string{"£100.00", "25.50"},
		},
		Synonyms:  synonyms,
		Validator: IsCurrency,
	}
}

func textField(key model.FieldKey, label, description string, synonyms ...string) FieldSpec {
	return FieldSpec{
		Definition: model.FieldDefinition{
			Key:         key,
			Label:       label,
			Description: description,
			Type:        model.FieldTypeText,
		},
		Synonyms:  synonyms,
		Validator: IsText,
	}
}

func defaultSpecs() []ContextSpec {
	return []ContextSpec{
		{
			Context: model.ContextPensions,
			Fields: []FieldSpec{
				dateField("contribution date", "paid date"),
				amountField("Total contribution paid into the pension",
					"contribution amount", "contribution", "total contribution", "total paid", "paid in"),
				providerField("pension provider", "scheme", "scheme name", "plan provider", "pension company"),
				currencyField(model.FieldEmployeeContribution, "Employee Contribution",
					"Member's own contribution",
					"employee contribution", "member contribution", "personal contribution",
					"your contribution", "employee"),
				currencyField(model.FieldEmployerContribution, "Employer Contribution",
					"Contribution paid by the employer",
					"employer contribution", "company contribution", "employer"),
				currencyField(model.FieldTaxRelief, "Tax Relief",
					"Basic rate relief claimed from HMRC",
					"tax relief", "basic rate relief", "relief at source", "government top up"),
				balanceField("fund value", "pot value", "plan value", "valuation", "total value"),
				textField(model.FieldFundName, "Fund Name", "Fund the contribution was invested in",
					"fund", "fund name", "investment fund", "plan name"),
				transactionTypeField("contribution type"),
				descriptionField(),
				referenceField(),
			},
		},
		{
			Context: model.ContextSavings,
			Fields: []FieldSpec{
				dateField(),
				amountField("Amount paid in or withdrawn",
					"deposit", "deposit amount", "paid in", "money in", "credit", "withdrawal"),
				providerField("savings provider", "building society"),
				balanceField("account balance"),
				textField(model.FieldAccountName, "Account Name", "Name of the savings account",
					"account", "account name", "account nickname", "product"),
				interestRateField(),
				currencyField(model.FieldInterest, "Interest", "Interest credited",
					"interest", "interest paid", "interest earned"),
				transactionTypeField(),
				descriptionField(),
				referenceField(),
			},
		},
		{
			Context: model.ContextDebts,
			Fields: []FieldSpec{
				dateField("due date"),
				amountField("Repayment or charge amount",
					"payment", "repayment", "repayment amount", "paid", "debit", "money out"),
				providerField("lender", "creditor", "card issuer"),
				balanceField("outstanding balance", "remaining balance", "amount owed", "outstanding"),
				interestRateField("apr", "interest"),
				currencyField(model.FieldMinimumPayment, "Minimum Payment", "Minimum payment due",
					"minimum payment", "min payment", "minimum due", "min due"),
				currencyField(model.FieldInterest, "Interest Charged", "Interest charged in the period",
					"interest charged", "interest charge"),
				transactionTypeField(),
				descriptionField(),
				referenceField(),
			},
		},
		{
			Context: model.ContextInvestments,
			Fields: []FieldSpec{
				dateField("trade date", "settlement date", "deal date"),
				amountField("Cash value of the transaction",
					"consideration", "cost", "total", "proceeds", "transaction value", "total cost"),
				providerField("platform", "broker", "account provider"),
				textField(model.FieldFundName, "Investment", "Fund or security traded",
					"fund", "fund name", "investment", "security", "holding", "stock", "asset", "instrument"),
				{
					Definition: model.FieldDefinition{
						Key:         model.FieldTicker,
						Label:       "Ticker",
						Description: "Ticker, EPIC, ISIN or SEDOL code",
						Type:        model.FieldTypeText,
						Examples:    []string{"VWRL", "GB00B3X7QG63"},
					},
					Synonyms:  []string{"ticker", "symbol", "epic", "isin", "sedol"},
					Validator: IsReference,
				},
				{
					Definition: model.FieldDefinition{
						Key:         model.FieldUnits,
						Label:       "Units",
						Description: "Number of units or shares",
						Type:        model.FieldTypeNumber,
						Examples:    []string{"12.3456", "100"},
					},
					Synonyms:  []string{"units", "quantity", "shares", "qty", "no. of units"},
					Validator: IsNumber,
				},
				currencyField(model.FieldUnitPrice, "Unit Price", "Price paid per unit",
					"unit price", "price", "share price", "price per unit"),
				balanceField("market value", "holding value", "valuation"),
				transactionTypeField("action", "buy/sell", "order type"),
				descriptionField(),
				referenceField(),
			},
		},
	}
}
